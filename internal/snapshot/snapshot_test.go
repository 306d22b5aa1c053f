package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/board-crawler/internal/board"
	"github.com/JakeFAU/board-crawler/internal/hash/sha256"
	"github.com/JakeFAU/board-crawler/internal/storage/memory"
)

var generatedAt = time.Date(2024, 1, 1, 3, 0, 0, 0, time.UTC)

func sampleResults() []board.ThreadResult {
	return []board.ThreadResult{
		{ThreadURL: "https://b.example/public/thread/index?id=1", ThreadTitle: "Tokyo", Posts: []board.Post{{ID: "1", Images: []string{}}}},
		{ThreadURL: "https://b.example/public/thread/index?id=2", ThreadTitle: "Tokyo empty", Posts: []board.Post{}},
	}
}

func TestBuildDropsEmptyThreads(t *testing.T) {
	t.Parallel()

	snap := Build("run-1", generatedAt, "BASIC", []int{1, 2}, 60, sampleResults(), true)
	require.Len(t, snap.Results, 1)
	assert.Equal(t, "Tokyo", snap.Results[0].ThreadTitle)

	snap = Build("run-1", generatedAt, "BASIC", nil, 60, sampleResults(), false)
	assert.Len(t, snap.Results, 2)
	assert.NotNil(t, snap.Pages)
}

func TestMarshalShape(t *testing.T) {
	t.Parallel()

	snap := Build("", generatedAt, "WIDE", []int{1}, 0, nil, true)
	data, err := snap.Marshal()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "2024-01-01T03:00:00Z", decoded["generatedAt"])
	assert.Equal(t, "WIDE", decoded["mode"])
	assert.Equal(t, []any{float64(1)}, decoded["pages"])
	assert.Equal(t, float64(0), decoded["maxPostAgeMinutes"])
	assert.Equal(t, []any{}, decoded["results"])
	assert.NotContains(t, decoded, "runId")
}

type failingStore struct{}

func (failingStore) PutObject(context.Context, string, string, io.Reader) (string, error) {
	return "", errors.New("bucket unavailable")
}

func TestPublisherPublish(t *testing.T) {
	t.Parallel()

	first, second := memory.NewBlobStore(), memory.NewBlobStore()
	pub := NewPublisher([]Sink{{Name: "a", Store: first}, {Name: "b", Store: second}}, "board_results.json", sha256.New(), nil)

	snap := Build("run-9", generatedAt, "BASIC", []int{1}, 30, sampleResults(), true)
	published, err := pub.Publish(context.Background(), snap)
	require.NoError(t, err)
	assert.Equal(t, []Published{
		{Sink: "a", Location: "memory://board_results.json"},
		{Sink: "b", Location: "memory://board_results.json"},
	}, published)

	obj, ok := second.Get("board_results.json")
	require.True(t, ok)
	assert.Equal(t, contentType, obj.ContentType)

	var decoded Snapshot
	require.NoError(t, json.Unmarshal(obj.Data, &decoded))
	assert.Equal(t, "run-9", decoded.RunID)
	assert.Len(t, decoded.Results, 1)
}

func TestPublisherStopsOnFailure(t *testing.T) {
	t.Parallel()

	after := memory.NewBlobStore()
	pub := NewPublisher([]Sink{{Name: "broken", Store: failingStore{}}, {Name: "after", Store: after}}, "x.json", nil, nil)

	published, err := pub.Publish(context.Background(), Build("", generatedAt, "BASIC", nil, 0, nil, true))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish snapshot to broken: bucket unavailable")
	assert.Empty(t, published)
	assert.Empty(t, after.Paths())
}
