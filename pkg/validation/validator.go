package validation

import (
	"strings"
	"unicode/utf8"

	"pohrebni-vence.cz/storefront/pkg/models"
)

// Options tune a validation run. StrictMode promotes every warning to an
// error and is used when an order is submitted.
type Options struct {
	Locale     string
	StrictMode bool
}

// ValidateWreathConfiguration checks a wreath configuration and returns the
// plain result used for live feedback.
func ValidateWreathConfiguration(customizations []models.Customization, options []models.CustomizationOption, selectedSize string, opts Options) Result {
	return Evaluate(customizations, options, selectedSize, opts).Result()
}

// ValidateWreathConfigurationEnhanced is ValidateWreathConfiguration with
// severity and recovery metadata on every issue.
func ValidateWreathConfigurationEnhanced(customizations []models.Customization, options []models.CustomizationOption, selectedSize string, opts Options) EnhancedResult {
	return Evaluate(customizations, options, selectedSize, opts).Enhanced()
}

// Evaluate runs every configuration rule in order.
func Evaluate(customizations []models.Customization, options []models.CustomizationOption, selectedSize string, opts Options) Report {
	ev := newEvaluation(customizations, options, opts.Locale)

	ev.checkSize(selectedSize)
	ev.checkRibbon()
	ev.checkRibbonText()
	ev.checkRequiredOptions()
	ev.checkSelections()

	if opts.StrictMode {
		for i := range ev.report.Issues {
			ev.report.Issues[i].Severity = SeverityError
		}
	}
	return ev.report
}

type evaluation struct {
	locale         string
	customizations []models.Customization
	options        []models.CustomizationOption
	byID           map[string]models.CustomizationOption
	report         Report
}

func newEvaluation(customizations []models.Customization, options []models.CustomizationOption, locale string) *evaluation {
	ev := &evaluation{
		locale:         locale,
		customizations: customizations,
		options:        options,
		byID:           make(map[string]models.CustomizationOption, len(options)),
	}
	for _, o := range options {
		ev.byID[o.ID] = o
	}
	return ev
}

func (ev *evaluation) add(issue Issue) {
	ev.report.Issues = append(ev.report.Issues, issue)
}

func (ev *evaluation) userInputError(field, code string, args ...any) {
	ev.add(Issue{
		Field:            field,
		Code:             code,
		Severity:         SeverityError,
		Message:          message(ev.locale, code, args...),
		RecoveryStrategy: RecoveryUserInput,
	})
}

// fallbackError reports an error that can be fixed by picking fallback when
// the catalog offers one.
func (ev *evaluation) fallbackError(field, code string, fallback string, args ...any) {
	issue := Issue{
		Field:            field,
		Code:             code,
		Severity:         SeverityError,
		Message:          message(ev.locale, code, args...),
		RecoveryStrategy: RecoveryUserInput,
	}
	if fallback != "" {
		issue.Recoverable = true
		issue.RecoveryStrategy = RecoveryFallback
		issue.FallbackValue = fallback
	}
	ev.add(issue)
}

func (ev *evaluation) warning(field, code string, strategy RecoveryStrategy, fallback any, args ...any) {
	ev.add(Issue{
		Field:            field,
		Code:             code,
		Severity:         SeverityWarning,
		Message:          message(ev.locale, code, args...),
		Recoverable:      true,
		RecoveryStrategy: strategy,
		FallbackValue:    fallback,
	})
}

// optionFor resolves the catalog option a customization refers to. Clients
// may address an option by its type name when the catalog ids are unknown.
func (ev *evaluation) optionFor(c models.Customization) (models.CustomizationOption, bool) {
	if o, ok := ev.byID[c.OptionID]; ok {
		return o, true
	}
	for _, o := range ev.options {
		if string(o.Type) == c.OptionID {
			return o, true
		}
	}
	return models.CustomizationOption{}, false
}

func (ev *evaluation) typeOf(c models.Customization) models.OptionType {
	if o, ok := ev.optionFor(c); ok {
		return o.Type
	}
	return models.OptionType(c.OptionID)
}

func (ev *evaluation) optionOfType(t models.OptionType) (models.CustomizationOption, bool) {
	for _, o := range ev.options {
		if o.Type == t {
			return o, true
		}
	}
	return models.CustomizationOption{}, false
}

func (ev *evaluation) customizationOfType(t models.OptionType) (models.Customization, bool) {
	for _, c := range ev.customizations {
		if ev.typeOf(c) == t {
			return c, true
		}
	}
	return models.Customization{}, false
}

// fieldFor names the field of an option type: the catalog id when present.
func (ev *evaluation) fieldFor(t models.OptionType) string {
	if o, ok := ev.optionOfType(t); ok && o.ID != "" {
		return o.ID
	}
	return string(t)
}

func firstAvailable(o models.CustomizationOption) string {
	for _, c := range o.Choices {
		if c.Available {
			return c.ID
		}
	}
	return ""
}

func displayName(o models.CustomizationOption) string {
	if o.Name != "" {
		return o.Name
	}
	return o.ID
}

func (ev *evaluation) checkSize(selectedSize string) {
	sizeOpt, ok := ev.optionOfType(models.OptionSize)
	if !ok {
		return
	}
	if selectedSize == "" {
		if c, found := ev.customizationOfType(models.OptionSize); found && len(c.ChoiceIDs) > 0 {
			selectedSize = c.ChoiceIDs[0]
		}
	}

	field := ev.fieldFor(models.OptionSize)
	if selectedSize == "" {
		if sizeOpt.Required {
			ev.fallbackError(field, CodeSizeRequired, firstAvailable(sizeOpt))
		}
		return
	}
	if _, known := sizeOpt.Choice(selectedSize); !known {
		ev.fallbackError(field, CodeInvalidSize, firstAvailable(sizeOpt), selectedSize)
	}
}

func isYesChoice(id string) bool {
	id = strings.ToLower(id)
	return id == "yes" || id == "ribbon_yes" || strings.HasSuffix(id, "_yes")
}

func (ev *evaluation) checkRibbon() {
	if c, ok := ev.customizationOfType(models.OptionRibbon); ok {
		for _, id := range c.ChoiceIDs {
			if isYesChoice(id) {
				ev.report.HasRibbonSelected = true
				break
			}
		}
	}

	color, hasColor := ev.customizationOfType(models.OptionRibbonColor)
	text, hasText := ev.customizationOfType(models.OptionRibbonText)
	colorGiven := hasColor && len(color.ChoiceIDs) > 0
	textGiven := hasText && (len(text.ChoiceIDs) > 0 || strings.TrimSpace(derefString(text.CustomValue)) != "")

	if !ev.report.HasRibbonSelected {
		if colorGiven || textGiven {
			ev.warning(ev.fieldFor(models.OptionRibbon), CodeRibbonNotSelected, RecoveryIgnore, nil)
		}
		return
	}

	if !colorGiven {
		fallback := ""
		if o, ok := ev.optionOfType(models.OptionRibbonColor); ok {
			fallback = firstAvailable(o)
		}
		ev.fallbackError(ev.fieldFor(models.OptionRibbonColor), CodeRibbonColorRequired, fallback)
	}
	if !textGiven {
		ev.userInputError(ev.fieldFor(models.OptionRibbonText), CodeRibbonTextRequired)
	}
}

func (ev *evaluation) checkRibbonText() {
	c, ok := ev.customizationOfType(models.OptionRibbonText)
	if !ok || !c.HasCustomValue() {
		return
	}
	field := ev.fieldFor(models.OptionRibbonText)
	raw := *c.CustomValue
	sanitized := SanitizeText(raw)
	ev.report.RibbonText = sanitized

	if utf8.RuneCountInString(sanitized) < MinTextLength {
		ev.userInputError(field, CodeRibbonTextTooShort, MinTextLength)
	}
	if ContainsForbiddenContent(raw) || ContainsForbiddenContent(sanitized) {
		ev.userInputError(field, CodeForbiddenContent)
		return
	}
	if strippedCharacters(raw, sanitized) {
		ev.warning(field, CodeTextSanitized, RecoveryFallback, sanitized)
	}
}

// checkRequiredOptions covers every required option outside the size and
// ribbon rules.
func (ev *evaluation) checkRequiredOptions() {
	for _, o := range ev.options {
		if o.Type == models.OptionSize || o.Type.IsRibbonFamily() {
			continue
		}
		var count int
		selected := false
		for _, c := range ev.customizations {
			if opt, ok := ev.optionFor(c); !ok || opt.ID != o.ID {
				continue
			}
			if len(c.ChoiceIDs) > 0 {
				selected = true
			}
			count += len(c.ChoiceIDs)
		}
		field := o.ID
		if o.Required && !selected {
			ev.fallbackError(field, CodeOptionRequired, firstAvailable(o), displayName(o))
			continue
		}
		if count == 0 {
			continue
		}
		if o.MinSelections != nil && count < *o.MinSelections {
			ev.userInputError(field, CodeTooFewSelections, displayName(o), *o.MinSelections)
		}
		if o.MaxSelections != nil && count > *o.MaxSelections {
			ev.userInputError(field, CodeTooManySelections, displayName(o), *o.MaxSelections)
		}
	}
}

// checkSelections verifies referenced options and choices exist in the
// catalog and are in stock.
func (ev *evaluation) checkSelections() {
	for _, c := range ev.customizations {
		o, ok := ev.optionFor(c)
		if !ok {
			ev.warning(c.OptionID, CodeUnknownOption, RecoveryIgnore, nil, c.OptionID)
			continue
		}
		seen := make(map[string]bool, len(c.ChoiceIDs))
		for _, id := range c.ChoiceIDs {
			if seen[id] {
				ev.warning(o.ID, CodeDuplicateChoice, RecoveryIgnore, nil, id)
				continue
			}
			seen[id] = true

			choice, known := o.Choice(id)
			switch {
			case !known && o.Type == models.OptionSize:
				// reported by checkSize
			case !known:
				ev.userInputError(o.ID, CodeInvalidChoice, id, displayName(o))
			case !choice.Available:
				ev.warning(o.ID, CodeChoiceUnavailable, RecoveryUserInput, nil, id)
			}
		}
	}
}

// ValidateCartItemInput checks the fields of an add-to-cart request.
func ValidateCartItemInput(productID string, quantity int, locale string) error {
	var errs Errors
	if strings.TrimSpace(productID) == "" {
		errs = append(errs, fieldError(locale, "productId", CodeRequired, "productId"))
	}
	if err := ValidateQuantity(quantity, locale); err != nil {
		errs = append(errs, err.(Errors)...)
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ValidateQuantity checks a cart line quantity against the allowed range.
func ValidateQuantity(quantity int, locale string) error {
	if quantity < models.MinItemQuantity || quantity > models.MaxItemQuantity {
		return Errors{fieldError(locale, "quantity", CodeOutOfRange, "quantity", models.MinItemQuantity, models.MaxItemQuantity)}
	}
	return nil
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
