package store_test

import (
	"testing"

	"pohrebni-vence.cz/storefront/pkg/store"
	"pohrebni-vence.cz/storefront/pkg/store/storetest"
)

func TestContract_MemoryStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		t.Helper()
		return store.NewMemoryStore()
	})
}
