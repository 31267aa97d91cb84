package validation

import (
	"fmt"

	"pohrebni-vence.cz/storefront/pkg/global"
)

// Issue codes.
const (
	CodeSizeRequired        = "size_required"
	CodeInvalidSize         = "invalid_size"
	CodeRibbonColorRequired = "ribbon_color_required"
	CodeRibbonTextRequired  = "ribbon_text_required"
	CodeRibbonTextTooShort  = "ribbon_text_too_short"
	CodeForbiddenContent    = "forbidden_content"
	CodeOptionRequired      = "option_required"
	CodeTooFewSelections    = "too_few_selections"
	CodeTooManySelections   = "too_many_selections"
	CodeInvalidChoice       = "invalid_choice"
	CodeUnknownOption       = "unknown_option"
	CodeChoiceUnavailable   = "choice_unavailable"
	CodeDuplicateChoice     = "duplicate_choice"
	CodeTextSanitized       = "text_sanitized"
	CodeRibbonNotSelected   = "ribbon_not_selected"
	CodeRequired            = "required"
	CodeOutOfRange          = "out_of_range"
	CodeInvalidValue        = "invalid_value"
	CodeDeliveryUnavailable = "delivery_unavailable"
	CodeInvalidDiscount     = "invalid_discount"
	CodeProductUnavailable  = "product_unavailable"
)

var messageCatalog = map[string]map[string]string{
	global.LocaleCS: {
		CodeSizeRequired:        "Vyberte prosím velikost věnce.",
		CodeInvalidSize:         "Vybraná velikost %s není pro tento věnec dostupná.",
		CodeRibbonColorRequired: "Vyberte prosím barvu stuhy.",
		CodeRibbonTextRequired:  "Zadejte prosím text na stuhu.",
		CodeRibbonTextTooShort:  "Text na stuhu musí mít alespoň %d znaky.",
		CodeForbiddenContent:    "Text obsahuje nepovolený obsah.",
		CodeOptionRequired:      "Vyberte prosím možnost %s.",
		CodeTooFewSelections:    "U možnosti %s vyberte alespoň %d položky.",
		CodeTooManySelections:   "U možnosti %s lze vybrat nejvýše %d položky.",
		CodeInvalidChoice:       "Volba %s u možnosti %s neexistuje.",
		CodeUnknownOption:       "Možnost %s u tohoto produktu neexistuje a bude ignorována.",
		CodeChoiceUnavailable:   "Volba %s momentálně není skladem.",
		CodeDuplicateChoice:     "Volba %s je vybrána vícekrát.",
		CodeTextSanitized:       "Z textu byly odstraněny nepodporované znaky.",
		CodeRibbonNotSelected:   "Nastavení stuhy bude ignorováno, protože stuha není vybrána.",
		CodeRequired:            "Pole %s je povinné.",
		CodeOutOfRange:          "Hodnota %s musí být mezi %d a %d.",
		CodeInvalidValue:        "Hodnota pole %s je neplatná.",
		CodeDeliveryUnavailable: "Na den %s nelze doručit. Vyberte prosím jiný termín.",
		CodeInvalidDiscount:     "Slevový kód %s není platný.",
		CodeProductUnavailable:  "Produkt %s již není v nabídce.",
	},
	global.LocaleEN: {
		CodeSizeRequired:        "Please select a wreath size.",
		CodeInvalidSize:         "The selected size %s is not available for this wreath.",
		CodeRibbonColorRequired: "Please select a ribbon colour.",
		CodeRibbonTextRequired:  "Please enter the ribbon text.",
		CodeRibbonTextTooShort:  "Ribbon text must be at least %d characters long.",
		CodeForbiddenContent:    "The text contains forbidden content.",
		CodeOptionRequired:      "Please select an option for %s.",
		CodeTooFewSelections:    "Select at least %[2]d items for %[1]s.",
		CodeTooManySelections:   "Select at most %[2]d items for %[1]s.",
		CodeInvalidChoice:       "Choice %s does not exist for option %s.",
		CodeUnknownOption:       "Option %s does not exist for this product and will be ignored.",
		CodeChoiceUnavailable:   "Choice %s is currently out of stock.",
		CodeDuplicateChoice:     "Choice %s is selected more than once.",
		CodeTextSanitized:       "Unsupported characters were removed from the text.",
		CodeRibbonNotSelected:   "Ribbon settings will be ignored because no ribbon is selected.",
		CodeRequired:            "Field %s is required.",
		CodeOutOfRange:          "Value of %s must be between %d and %d.",
		CodeInvalidValue:        "Field %s has an invalid value.",
		CodeDeliveryUnavailable: "Delivery is not possible on %s. Please choose another date.",
		CodeInvalidDiscount:     "Discount code %s is not valid.",
		CodeProductUnavailable:  "Product %s is no longer available.",
	},
}

func message(locale, code string, args ...any) string {
	catalog := messageCatalog[global.NormalizeLocale(locale)]
	format, ok := catalog[code]
	if !ok {
		return code
	}
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}

// FieldError builds a localized field error for code.
func FieldError(locale, field, code string, args ...any) global.ValidationError {
	return fieldError(locale, field, code, args...)
}

func fieldError(locale, field, code string, args ...any) global.ValidationError {
	return global.ValidationError{Field: field, Message: message(locale, code, args...), Code: code}
}
