package objectstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaydeluca/java-meta-tracker/internal/domain/model"
)

// fakeClient is an in-memory objectClient.
type fakeClient struct {
	buckets map[string]bool
	objects map[string][]byte
	getErr  error
	putErr  error
}

func newFakeClient() *fakeClient {
	return &fakeClient{buckets: map[string]bool{}, objects: map[string][]byte{}}
}

func (f *fakeClient) ensureBucket(_ context.Context, bucket string) error {
	f.buckets[bucket] = true
	return nil
}

func (f *fakeClient) get(_ context.Context, bucket, key string) ([]byte, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	data, ok := f.objects[bucket+"/"+key]
	if !ok {
		return nil, errObjectNotFound
	}
	return data, nil
}

func (f *fakeClient) put(_ context.Context, bucket, key string, data []byte) error {
	if f.putErr != nil {
		return f.putErr
	}
	f.objects[bucket+"/"+key] = data
	return nil
}

func newTestStore(client objectClient) *Store {
	s := newStore(client, "tracker", "processed_workflow_runs.json")
	s.now = func() time.Time { return time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC) }
	return s
}

func TestStore_LoadMissingObject(t *testing.T) {
	s := newTestStore(newFakeClient())

	assert.Equal(t, 0, s.Load(context.Background()).Len())
}

func TestStore_LoadReadErrorStartsEmpty(t *testing.T) {
	client := newFakeClient()
	client.getErr = errors.New("connection refused")

	assert.Equal(t, 0, newTestStore(client).Load(context.Background()).Len())
}

func TestStore_LoadCorruptObjectStartsEmpty(t *testing.T) {
	client := newFakeClient()
	client.objects["tracker/processed_workflow_runs.json"] = []byte("garbage")

	assert.Equal(t, 0, newTestStore(client).Load(context.Background()).Len())
}

func TestStore_LoadDocumentWithNaiveTimestamp(t *testing.T) {
	client := newFakeClient()
	client.objects["tracker/processed_workflow_runs.json"] = []byte(
		`{"run_ids": [19000000003, 19000000002, 19000000001], "last_updated": "2025-10-22T05:21:03.123456", "count": 3}`)

	ids := newTestStore(client).Load(context.Background())

	assert.Equal(t, model.NewRunIDSet(19000000001, 19000000002, 19000000003), ids)
}

func TestStore_SaveAndLoad(t *testing.T) {
	client := newFakeClient()
	s := newTestStore(client)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, model.NewRunIDSet(5, 6)))

	assert.True(t, client.buckets["tracker"], "bucket should be created on save")
	assert.Contains(t, string(client.objects["tracker/processed_workflow_runs.json"]), `"count": 2`)
	assert.Equal(t, model.NewRunIDSet(5, 6), s.Load(ctx))
}

func TestStore_SaveTrimsToLargestIDs(t *testing.T) {
	s := newTestStore(newFakeClient())
	ctx := context.Background()

	ids := model.NewRunIDSet()
	for i := int64(1); i <= model.MaxStoredRunIDs+1; i++ {
		ids.Add(i)
	}
	require.NoError(t, s.Save(ctx, ids))

	got := s.Load(ctx)
	assert.Equal(t, model.MaxStoredRunIDs, got.Len())
	assert.False(t, got.Has(1))
}

func TestStore_SavePutError(t *testing.T) {
	client := newFakeClient()
	client.putErr = errors.New("access denied")

	err := newTestStore(client).Save(context.Background(), model.NewRunIDSet(1))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "put tracker/processed_workflow_runs.json")
}

func TestNewStore_RequiresEndpointAndBucket(t *testing.T) {
	_, err := NewStore(Options{Bucket: "b"})
	require.Error(t, err)

	_, err = NewStore(Options{Endpoint: "localhost:9000"})
	require.Error(t, err)

	s, err := NewStore(Options{Endpoint: "localhost:9000", Bucket: "b", Key: "k.json"})
	require.NoError(t, err)
	assert.Equal(t, "k.json", s.key)
}
