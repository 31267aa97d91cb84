package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"pohrebni-vence.cz/storefront/pkg/logging"
	"pohrebni-vence.cz/storefront/pkg/store"
	"pohrebni-vence.cz/storefront/pkg/store/storetest"
)

func TestContract_PostgresStore(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	storetest.Run(t, func(t *testing.T) store.Store {
		t.Helper()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		s, err := Connect(ctx, url, logging.Discard())
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close(context.Background()) })
		return s
	})
}

func TestMigrationsEmbedded(t *testing.T) {
	sql, err := migrations.ReadFile("migrations/001_init.sql")
	require.NoError(t, err)
	for _, table := range []string{"cart_items", "products", "orders", "discounts"} {
		require.Contains(t, string(sql), "CREATE TABLE IF NOT EXISTS "+table)
	}
}
