package redis

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"pohrebni-vence.cz/storefront/pkg/models"
)

// Key prefixes. Keys follow {domain}:{subdomain}:{identifier}.
const (
	cartConfigPrefix     = "cart:config:"
	cartGenerationPrefix = "cart:gen:"
	pricePrefix          = "cart:price:"
	priceKeysPrefix      = "cart:price-keys:"
	paymentSessionPrefix = "payment:session:"
)

func CartConfigKey(identifier string) string {
	return cartConfigPrefix + identifier
}

// CartGenerationKey addresses the counter bumped on every cart mutation.
func CartGenerationKey(identifier string) string {
	return cartGenerationPrefix + identifier
}

// PriceKey addresses the cached price of one product configuration.
func PriceKey(productID string, customizations []models.Customization) (string, error) {
	hash, err := CustomizationHash(customizations)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%s:%s", pricePrefix, productID, hash), nil
}

// PriceKeysKey addresses the set of price keys cached for an identifier.
func PriceKeysKey(identifier string) string {
	return priceKeysPrefix + identifier
}

func PaymentSessionKey(sessionID string) string {
	return paymentSessionPrefix + sessionID
}

// CustomizationHash encodes customizations canonically: options sorted by id,
// choice ids sorted, so equal configurations share a key regardless of the
// order the client sent them in.
func CustomizationHash(customizations []models.Customization) (string, error) {
	canonical := CanonicalCustomizations(customizations)
	data, err := json.Marshal(canonical)
	if err != nil {
		return "", fmt.Errorf("encode customizations: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// CanonicalCustomizations returns a sorted deep copy of customizations.
func CanonicalCustomizations(customizations []models.Customization) []models.Customization {
	out := make([]models.Customization, len(customizations))
	for i, c := range customizations {
		ids := append([]string{}, c.ChoiceIDs...)
		sort.Strings(ids)
		c.ChoiceIDs = ids
		out[i] = c
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OptionID < out[j].OptionID
	})
	return out
}

// GetJSON decodes the value at key into dst. found is false on a miss.
func GetJSON(ctx context.Context, s Store, key string, dst any) (found bool, err error) {
	data, err := s.Get(ctx, key)
	if errors.Is(err, ErrMiss) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func SetJSON(ctx context.Context, s Store, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Set(ctx, key, data, ttl)
}
