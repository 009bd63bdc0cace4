package sheets

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapCache struct {
	data   map[string][]byte
	getErr error
}

func (c *mapCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	b, ok := c.data[key]
	return b, ok, nil
}

func (c *mapCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.data[key] = value
	return nil
}

func (c *mapCache) Del(_ context.Context, key string) error {
	delete(c.data, key)
	return nil
}

type countingReader struct {
	calls map[string]int
}

func (r *countingReader) FetchTable(_ context.Context, _, sheet string) (*Table, error) {
	r.calls[sheet]++
	return &Table{Rows: []Row{NewRow(sheet)}}, nil
}

func TestCachedReader(t *testing.T) {
	ctx := context.Background()
	next := &countingReader{calls: map[string]int{}}
	cache := &mapCache{data: map[string][]byte{}}
	r := NewCachedReader(next, cache, time.Minute, "Materials")

	for i := 0; i < 3; i++ {
		tbl, err := r.FetchTable(ctx, "sid", "Materials")
		require.NoError(t, err)
		assert.Equal(t, "Materials", tbl.Rows[0].String(0))
	}
	assert.Equal(t, 1, next.calls["Materials"])

	for i := 0; i < 2; i++ {
		_, err := r.FetchTable(ctx, "sid", "Planning")
		require.NoError(t, err)
	}
	assert.Equal(t, 2, next.calls["Planning"])

	require.NoError(t, r.Invalidate(ctx, "sid", "Materials"))
	_, err := r.FetchTable(ctx, "sid", "Materials")
	require.NoError(t, err)
	assert.Equal(t, 2, next.calls["Materials"])
}

func TestCachedReaderFallsThroughOnCacheError(t *testing.T) {
	next := &countingReader{calls: map[string]int{}}
	cache := &mapCache{data: map[string][]byte{}, getErr: errors.New("redis down")}
	r := NewCachedReader(next, cache, time.Minute, "Materials")

	tbl, err := r.FetchTable(context.Background(), "sid", "Materials")
	require.NoError(t, err)
	assert.Len(t, tbl.Rows, 1)
	assert.Equal(t, 1, next.calls["Materials"])
}
