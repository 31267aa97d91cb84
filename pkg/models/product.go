package models

import (
	"time"

	"pohrebni-vence.cz/storefront/pkg/money"
)

type OptionType string

const (
	OptionSize        OptionType = "size"
	OptionRibbon      OptionType = "ribbon"
	OptionRibbonColor OptionType = "ribbon_color"
	OptionRibbonText  OptionType = "ribbon_text"
	OptionExtras      OptionType = "extras"
	OptionFlowers     OptionType = "flowers"
	OptionMessageCard OptionType = "message_card"
)

// IsRibbonFamily reports whether t is validated by the ribbon rules rather
// than the generic required-option rule.
func (t OptionType) IsRibbonFamily() bool {
	return t == OptionRibbon || t == OptionRibbonColor || t == OptionRibbonText
}

// Choice is one selectable value of a customization option.
type Choice struct {
	ID            string       `json:"id" bson:"id"`
	Label         string       `json:"label,omitempty" bson:"label,omitempty"`
	PriceModifier money.Amount `json:"priceModifier" bson:"price_modifier"`
	Available     bool         `json:"available" bson:"available"`
}

// CustomizationOption is the rule surface of one configurable product aspect.
type CustomizationOption struct {
	ID            string     `json:"id" bson:"id"`
	Type          OptionType `json:"type" bson:"type"`
	Name          string     `json:"name,omitempty" bson:"name,omitempty"`
	Required      bool       `json:"required" bson:"required"`
	MinSelections *int       `json:"minSelections,omitempty" bson:"min_selections,omitempty"`
	MaxSelections *int       `json:"maxSelections,omitempty" bson:"max_selections,omitempty"`
	Choices       []Choice   `json:"choices" bson:"choices"`
}

func (o CustomizationOption) Choice(id string) (Choice, bool) {
	for _, c := range o.Choices {
		if c.ID == id {
			return c, true
		}
	}
	return Choice{}, false
}

// Product is a wreath as sold by the storefront.
type Product struct {
	ID                   string                `json:"id" bson:"_id"`
	Slug                 string                `json:"slug" bson:"slug"`
	Name                 string                `json:"name" bson:"name"`
	Description          string                `json:"description,omitempty" bson:"description,omitempty"`
	BasePrice            money.Amount          `json:"basePrice" bson:"base_price"`
	Active               bool                  `json:"active" bson:"active"`
	CustomizationOptions []CustomizationOption `json:"customizationOptions" bson:"customization_options"`
	CreatedAt            time.Time             `json:"createdAt" bson:"created_at"`
	UpdatedAt            time.Time             `json:"updatedAt" bson:"updated_at"`
}

// OptionByType returns the first option of type t.
func (p *Product) OptionByType(t OptionType) (CustomizationOption, bool) {
	for _, o := range p.CustomizationOptions {
		if o.Type == t {
			return o, true
		}
	}
	return CustomizationOption{}, false
}

func (p *Product) SetTimestamps() {
	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
}
