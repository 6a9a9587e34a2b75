package store_test

import (
	"testing"

	"github.com/croftdb/croft/lib/store"
	storetesting "github.com/croftdb/croft/lib/store/testing"
)

func TestDocStore(t *testing.T) {
	storetesting.RunDocStoreTests(t, "DocStore", func(t *testing.T, root string) store.IDocStore {
		s, err := store.New(store.Options{
			Root:     root,
			Registry: storetesting.NewTestRegistry(),
		})
		if err != nil {
			t.Fatalf("failed to create store: %v", err)
		}
		return s
	})
}
