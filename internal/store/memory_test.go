package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreBasicOps(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, st.Put(ctx, PartitionCart, "1", []byte(`{"quantity":2}`)))

	doc, err := st.Get(ctx, PartitionCart, "1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"quantity":2}`, string(doc))

	_, err = st.Get(ctx, PartitionCart, "2")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, st.Clear(ctx, PartitionCart))
	all, err := st.GetAll(ctx, PartitionCart)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestMemoryStoreCopiesDocuments(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	doc := []byte(`{"id":1}`)
	require.NoError(t, st.Put(ctx, PartitionProducts, "1", doc))
	doc[0] = 'X'

	stored, err := st.Get(ctx, PartitionProducts, "1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1}`, string(stored), "mutating the caller's slice must not corrupt the store")
}

func TestMemoryStoreBulkPut(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, st.BulkPut(ctx, PartitionProducts, map[string][]byte{
		"1": []byte(`{}`),
		"2": []byte(`{}`),
	}))

	all, err := st.GetAll(ctx, PartitionProducts)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
