package sync

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matetrip-backend/internal/protocol"
)

// stubProvider returns canned legs and counts invocations.
type stubProvider struct {
	calls int
	fail  map[string]bool // "fromLat,fromLng" pairs that error
}

func (p *stubProvider) Route(_ context.Context, fromLat, fromLng, _, _ float64) (float64, float64, error) {
	p.calls++
	if p.fail[fmt.Sprintf("%.1f,%.1f", fromLat, fromLng)] {
		return 0, 0, errors.New("no route")
	}
	return 600, 1500, nil
}

func orderedPois(ids ...string) []protocol.Poi {
	pois := make([]protocol.Poi, len(ids))
	for i, id := range ids {
		pois[i] = protocol.Poi{ID: id, Latitude: float64(i), Longitude: float64(i)}
	}
	return pois
}

func TestSegmentsForComputesAdjacentPairs(t *testing.T) {
	provider := &stubProvider{}
	cache := NewRouteCache(provider)

	segments := cache.SegmentsFor(context.Background(), 1, orderedPois("a", "b", "c"))

	require.Len(t, segments, 2)
	assert.Equal(t, "a", segments[0].FromPoiID)
	assert.Equal(t, "b", segments[0].ToPoiID)
	assert.Equal(t, "b", segments[1].FromPoiID)
	assert.Equal(t, "c", segments[1].ToPoiID)
	assert.Equal(t, float64(600), segments[0].Duration)
	assert.Equal(t, 2, provider.calls)
}

func TestSegmentsForReusesCacheWhileOrderUnchanged(t *testing.T) {
	provider := &stubProvider{}
	cache := NewRouteCache(provider)
	pois := orderedPois("a", "b", "c")

	cache.SegmentsFor(context.Background(), 1, pois)
	cache.SegmentsFor(context.Background(), 1, pois)
	cache.SegmentsFor(context.Background(), 1, pois)

	assert.Equal(t, 2, provider.calls, "unchanged order must not recompute")
}

func TestSegmentsForRecomputesOnOrderChange(t *testing.T) {
	provider := &stubProvider{}
	cache := NewRouteCache(provider)

	cache.SegmentsFor(context.Background(), 1, orderedPois("a", "b", "c"))
	require.Equal(t, 2, provider.calls)

	cache.SegmentsFor(context.Background(), 1, orderedPois("c", "a", "b"))
	assert.Equal(t, 4, provider.calls)
}

func TestSegmentsForIsPerDay(t *testing.T) {
	provider := &stubProvider{}
	cache := NewRouteCache(provider)
	pois := orderedPois("a", "b")

	cache.SegmentsFor(context.Background(), 1, pois)
	cache.SegmentsFor(context.Background(), 2, pois)

	// Same identifiers but different days: day 2 does not reuse day 1.
	assert.Equal(t, 2, provider.calls)
}

func TestFailedSegmentsAreAbsent(t *testing.T) {
	provider := &stubProvider{fail: map[string]bool{"1.0,1.0": true}}
	cache := NewRouteCache(provider)

	segments := cache.SegmentsFor(context.Background(), 1, orderedPois("a", "b", "c"))

	// The b->c leg failed; only a->b remains and no error surfaces.
	require.Len(t, segments, 1)
	assert.Equal(t, "a", segments[0].FromPoiID)
}

func TestInvalidateDropsOneDay(t *testing.T) {
	provider := &stubProvider{}
	cache := NewRouteCache(provider)
	pois := orderedPois("a", "b")

	cache.SegmentsFor(context.Background(), 1, pois)
	cache.SegmentsFor(context.Background(), 2, pois)
	require.Equal(t, 2, provider.calls)

	cache.Invalidate(1)
	cache.SegmentsFor(context.Background(), 1, pois)
	cache.SegmentsFor(context.Background(), 2, pois)

	assert.Equal(t, 3, provider.calls, "only day 1 recomputes")
}

func TestFewerThanTwoPoisYieldNoSegments(t *testing.T) {
	provider := &stubProvider{}
	cache := NewRouteCache(provider)

	assert.Empty(t, cache.SegmentsFor(context.Background(), 1, orderedPois("a")))
	assert.Empty(t, cache.SegmentsFor(context.Background(), 1, nil))
	assert.Equal(t, 0, provider.calls)
}
