package mongo

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"pohrebni-vence.cz/storefront/pkg/logging"
	"pohrebni-vence.cz/storefront/pkg/store"
	"pohrebni-vence.cz/storefront/pkg/store/storetest"
)

func TestContract_MongoStore(t *testing.T) {
	uri := os.Getenv("TEST_MONGODB_URI")
	if uri == "" {
		t.Skip("TEST_MONGODB_URI not set")
	}

	storetest.Run(t, func(t *testing.T) store.Store {
		t.Helper()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		s, err := Connect(ctx, uri, "wreaths_test_"+uuid.NewString()[:8], logging.Discard())
		require.NoError(t, err)
		t.Cleanup(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = s.Drop(ctx)
			_ = s.Close(ctx)
		})
		return s
	})
}
