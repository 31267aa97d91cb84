// Package pricing computes wreath prices from a base price, customization
// modifiers and discounts. All functions are pure.
package pricing

import (
	"github.com/shopspring/decimal"

	"pohrebni-vence.cz/storefront/pkg/models"
	"pohrebni-vence.cz/storefront/pkg/money"
)

var hundredPercent = decimal.NewFromInt(100)

// ModifierBreakdown is the net modifier contributed by one customization.
type ModifierBreakdown struct {
	OptionID  string       `json:"optionId"`
	ChoiceIDs []string     `json:"choiceIds"`
	Modifier  money.Amount `json:"modifier"`
}

type ModifierResult struct {
	TotalModifier money.Amount        `json:"totalModifier"`
	Breakdown     []ModifierBreakdown `json:"breakdown"`
}

type DiscountResult struct {
	FinalPrice       money.Amount             `json:"finalPrice"`
	TotalDiscount    money.Amount             `json:"totalDiscount"`
	AppliedDiscounts []models.AppliedDiscount `json:"appliedDiscounts"`
}

type FinalPrice struct {
	BasePrice           money.Amount `json:"basePrice"`
	PriceBeforeDiscount money.Amount `json:"priceBeforeDiscount"`
	DiscountResult
}

// CalculateTotalPrice adds every direct customization modifier to basePrice.
// The result never drops below zero.
func CalculateTotalPrice(basePrice money.Amount, customizations []models.Customization) money.Amount {
	total := basePrice
	for _, c := range customizations {
		if c.PriceModifier != nil {
			total += *c.PriceModifier
		}
	}
	return total.NonNegative()
}

// CalculateCustomizationPriceModifiers resolves selected choices against the
// product catalog instead of trusting client supplied modifiers. A direct
// PriceModifier on the customization is added on top. Unknown options and
// choices contribute nothing; entries netting to zero are left out of the
// breakdown.
func CalculateCustomizationPriceModifiers(customizations []models.Customization, options []models.CustomizationOption) ModifierResult {
	byID := make(map[string]models.CustomizationOption, len(options))
	for _, o := range options {
		byID[o.ID] = o
	}

	result := ModifierResult{Breakdown: []ModifierBreakdown{}}
	for _, c := range customizations {
		var modifier money.Amount
		if option, ok := byID[c.OptionID]; ok {
			for _, id := range c.ChoiceIDs {
				if choice, ok := option.Choice(id); ok {
					modifier += choice.PriceModifier
				}
			}
		}
		if c.PriceModifier != nil {
			modifier += *c.PriceModifier
		}
		if modifier == 0 {
			continue
		}
		result.TotalModifier += modifier
		result.Breakdown = append(result.Breakdown, ModifierBreakdown{
			OptionID:  c.OptionID,
			ChoiceIDs: c.ChoiceIDs,
			Modifier:  modifier,
		})
	}
	return result
}

// ApplyDiscounts applies discounts in list order. Percentages are taken from
// the running price, so order matters. Out of range percentages and
// non-positive fixed amounts are skipped.
func ApplyDiscounts(originalPrice money.Amount, discounts []models.Discount) DiscountResult {
	current := originalPrice.NonNegative()
	result := DiscountResult{AppliedDiscounts: []models.AppliedDiscount{}}

	for _, d := range discounts {
		var amount money.Amount
		switch d.Type {
		case models.DiscountPercentage:
			if !d.Value.IsPositive() || d.Value.GreaterThan(hundredPercent) {
				continue
			}
			amount = current.Percent(d.Value)
		case models.DiscountFixed:
			if !d.Value.IsPositive() {
				continue
			}
			amount = money.Min(money.FromDecimal(d.Value), current)
		default:
			continue
		}

		current -= amount
		result.TotalDiscount += amount
		result.AppliedDiscounts = append(result.AppliedDiscounts, models.AppliedDiscount{
			Code:   d.Code,
			Type:   d.Type,
			Value:  d.Value.String(),
			Amount: amount,
		})
	}

	result.FinalPrice = current.NonNegative()
	return result
}

// CalculateFinalPrice prices customizations first and applies discounts to the
// result. The two stages never influence each other.
func CalculateFinalPrice(basePrice money.Amount, customizations []models.Customization, discounts []models.Discount) FinalPrice {
	before := CalculateTotalPrice(basePrice, customizations)
	return FinalPrice{
		BasePrice:           basePrice,
		PriceBeforeDiscount: before,
		DiscountResult:      ApplyDiscounts(before, discounts),
	}
}

// CalculateUnitPrice is the catalog-resolved unit price of a configured product.
func CalculateUnitPrice(product *models.Product, customizations []models.Customization) models.PriceCalculation {
	mods := CalculateCustomizationPriceModifiers(customizations, product.CustomizationOptions)
	unit := (product.BasePrice + mods.TotalModifier).NonNegative()
	return models.PriceCalculation{
		UnitPrice:             unit,
		TotalPrice:            unit,
		BasePrice:             product.BasePrice,
		CustomizationModifier: mods.TotalModifier,
	}
}

// FormatPrice renders the gross display price: amount plus VAT at vatRate,
// grouped and suffixed for locale. Stored prices stay net.
func FormatPrice(amount money.Amount, vatRate float64, locale string) string {
	return money.FormatGross(amount, vatRate, locale)
}
