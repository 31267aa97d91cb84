package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pohrebni-vence.cz/storefront/pkg/models"
	"pohrebni-vence.cz/storefront/pkg/money"
)

func amount(a money.Amount) *money.Amount { return &a }

func percentage(v int64, code string) models.Discount {
	return models.Discount{Type: models.DiscountPercentage, Value: decimal.NewFromInt(v), Code: code}
}

func fixed(v int64, code string) models.Discount {
	return models.Discount{Type: models.DiscountFixed, Value: decimal.NewFromInt(v), Code: code}
}

func wreathOptions() []models.CustomizationOption {
	return []models.CustomizationOption{
		{
			ID:   "size",
			Type: models.OptionSize,
			Choices: []models.Choice{
				{ID: "size_40", PriceModifier: 0, Available: true},
				{ID: "size_60", PriceModifier: money.CZK(400), Available: true},
			},
		},
		{
			ID:   "extras",
			Type: models.OptionExtras,
			Choices: []models.Choice{
				{ID: "candle", PriceModifier: money.CZK(150), Available: true},
				{ID: "card", PriceModifier: money.CZK(50), Available: true},
			},
		},
	}
}

func TestCalculateTotalPrice(t *testing.T) {
	for _, base := range []money.Amount{0, 1, money.CZK(100), money.CZK(2499)} {
		assert.Equal(t, base, CalculateTotalPrice(base, nil))
	}

	got := CalculateTotalPrice(money.CZK(100), []models.Customization{{PriceModifier: amount(money.CZK(-200))}})
	assert.Equal(t, money.Zero, got, "never negative")

	got = CalculateTotalPrice(money.CZK(1000), []models.Customization{
		{OptionID: "a", PriceModifier: amount(money.CZK(150))},
		{OptionID: "b"},
		{OptionID: "c", PriceModifier: amount(money.CZK(-50))},
	})
	assert.Equal(t, money.CZK(1100), got)
}

func TestCalculateCustomizationPriceModifiers(t *testing.T) {
	customizations := []models.Customization{
		{OptionID: "size", ChoiceIDs: []string{"size_60"}},
		{OptionID: "extras", ChoiceIDs: []string{"candle", "card"}, PriceModifier: amount(money.CZK(10))},
		{OptionID: "size", ChoiceIDs: []string{"size_40"}},
		{OptionID: "unknown", ChoiceIDs: []string{"x"}},
		{OptionID: "extras", ChoiceIDs: []string{"missing"}},
	}

	result := CalculateCustomizationPriceModifiers(customizations, wreathOptions())

	assert.Equal(t, money.CZK(610), result.TotalModifier)
	require.Len(t, result.Breakdown, 2, "zero entries are omitted")
	assert.Equal(t, "size", result.Breakdown[0].OptionID)
	assert.Equal(t, money.CZK(400), result.Breakdown[0].Modifier)
	assert.Equal(t, "extras", result.Breakdown[1].OptionID)
	assert.Equal(t, money.CZK(210), result.Breakdown[1].Modifier)
}

func TestApplyDiscounts_Sequential(t *testing.T) {
	result := ApplyDiscounts(money.CZK(1000), []models.Discount{percentage(10, "A"), fixed(50, "B")})

	assert.Equal(t, money.CZK(850), result.FinalPrice)
	assert.Equal(t, money.CZK(150), result.TotalDiscount)
	require.Len(t, result.AppliedDiscounts, 2)
	assert.Equal(t, "A", result.AppliedDiscounts[0].Code)
	assert.Equal(t, money.CZK(100), result.AppliedDiscounts[0].Amount)
	assert.Equal(t, "B", result.AppliedDiscounts[1].Code)
	assert.Equal(t, money.CZK(50), result.AppliedDiscounts[1].Amount)
}

func TestApplyDiscounts_OrderMatters(t *testing.T) {
	first := ApplyDiscounts(money.CZK(1000), []models.Discount{percentage(10, "A"), fixed(100, "B")})
	second := ApplyDiscounts(money.CZK(1000), []models.Discount{fixed(100, "B"), percentage(10, "A")})

	assert.Equal(t, money.CZK(800), first.FinalPrice)
	assert.Equal(t, money.CZK(810), second.FinalPrice)
}

func TestApplyDiscounts_InvalidSkipped(t *testing.T) {
	tests := []struct {
		name     string
		discount models.Discount
	}{
		{"percentage over 100", percentage(150, "X")},
		{"zero percentage", percentage(0, "Z")},
		{"negative percentage", percentage(-5, "N")},
		{"zero fixed", fixed(0, "F0")},
		{"negative fixed", fixed(-10, "F1")},
		{"unknown type", models.Discount{Type: "bogo", Value: decimal.NewFromInt(1), Code: "B"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ApplyDiscounts(money.CZK(100), []models.Discount{tt.discount})
			assert.Equal(t, money.CZK(100), result.FinalPrice)
			assert.Equal(t, money.Zero, result.TotalDiscount)
			assert.Empty(t, result.AppliedDiscounts)
		})
	}
}

func TestApplyDiscounts_FixedCappedAtCurrentPrice(t *testing.T) {
	result := ApplyDiscounts(money.CZK(100), []models.Discount{fixed(80, "A"), fixed(80, "B"), percentage(100, "C")})

	assert.Equal(t, money.Zero, result.FinalPrice)
	assert.Equal(t, money.CZK(100), result.TotalDiscount)
	require.Len(t, result.AppliedDiscounts, 3)
	assert.Equal(t, money.CZK(20), result.AppliedDiscounts[1].Amount)
	assert.Equal(t, money.Zero, result.AppliedDiscounts[2].Amount)
}

func TestApplyDiscounts_FullPercentage(t *testing.T) {
	result := ApplyDiscounts(money.CZK(999), []models.Discount{percentage(100, "FREE")})
	assert.Equal(t, money.Zero, result.FinalPrice)
	assert.Equal(t, money.CZK(999), result.TotalDiscount)
}

func TestCalculateFinalPrice(t *testing.T) {
	result := CalculateFinalPrice(money.CZK(1000),
		[]models.Customization{{OptionID: "extras", PriceModifier: amount(money.CZK(200))}},
		[]models.Discount{percentage(50, "HALF")},
	)

	assert.Equal(t, money.CZK(1000), result.BasePrice)
	assert.Equal(t, money.CZK(1200), result.PriceBeforeDiscount)
	assert.Equal(t, money.CZK(600), result.FinalPrice)
	assert.Equal(t, money.CZK(600), result.TotalDiscount)
}

func TestCalculateUnitPrice(t *testing.T) {
	product := &models.Product{ID: "p1", BasePrice: money.CZK(1490), CustomizationOptions: wreathOptions()}

	calc := CalculateUnitPrice(product, []models.Customization{
		{OptionID: "size", ChoiceIDs: []string{"size_60"}},
		{OptionID: "extras", ChoiceIDs: []string{"card"}},
	})

	assert.Equal(t, money.CZK(1490), calc.BasePrice)
	assert.Equal(t, money.CZK(450), calc.CustomizationModifier)
	assert.Equal(t, money.CZK(1940), calc.UnitPrice)
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "CZK 12,100", FormatPrice(money.CZK(10000), 0.21, "en"))
	assert.Equal(t, "CZK 10,000", FormatPrice(money.CZK(10000), 0, "en"))
}
