package github

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRUCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := newLRUCache(2)

	c.Set("a", []byte("1"))
	c.Set("b", []byte("2"))
	_, _ = c.Get("a")
	c.Set("c", []byte("3"))

	assert.Equal(t, 2, c.Len())
	_, ok := c.Get("b")
	assert.False(t, ok, "b was least recently used")
	got, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, []byte("1"), got)

	c.Delete("a")
	_, ok = c.Get("a")
	assert.False(t, ok)
}

func TestLRUCache_NonPositiveSize(t *testing.T) {
	c := newLRUCache(0)
	c.Set("a", []byte("1"))
	c.Set("b", []byte("2"))

	assert.Equal(t, 1, c.Len())
}

func TestCacheTransport_StaysBoundedAcrossDistinctURLs(t *testing.T) {
	var revalidated atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		etag := `"` + r.URL.RequestURI() + `"`
		if r.Header.Get("If-None-Match") == etag {
			revalidated.Add(1)
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", etag)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"path":%q}`, r.URL.Path)
	}))
	t.Cleanup(server.Close)

	transport := newCacheTransport(3)
	client := &http.Client{Transport: transport}

	get := func(path string) {
		t.Helper()
		resp, err := client.Get(server.URL + path)
		require.NoError(t, err)
		_, err = io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())
	}

	// One pass worth of new timing URLs, as a long-running serve would see.
	for id := range 20 {
		get(fmt.Sprintf("/repos/o/r/actions/runs/%d/timing", id))
	}

	cache, ok := transport.Cache.(*lruCache)
	require.True(t, ok)
	assert.Equal(t, 3, cache.Len())

	// The most recent responses are still revalidated with their ETag.
	get("/repos/o/r/actions/runs/19/timing")
	assert.Equal(t, int32(1), revalidated.Load())
}
