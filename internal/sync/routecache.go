package sync

import (
	"context"
	"log"
	"strings"
	stdsync "sync"

	"matetrip-backend/internal/protocol"
)

// RouteProvider computes the travel leg between two coordinates. Implemented
// by route.Client over HTTP; tests substitute a stub.
type RouteProvider interface {
	Route(ctx context.Context, fromLat, fromLng, toLat, toLng float64) (duration, distance float64, err error)
}

// RouteCache memoizes the travel segments between consecutive POIs of each
// day. A day's segments are invalidated whenever that day's ordered POI list
// changes identity; a segment the provider failed to produce is simply
// absent, never an error surfaced to rendering.
type RouteCache struct {
	mu       stdsync.Mutex
	provider RouteProvider
	days     map[int64]dayRoutes
}

type dayRoutes struct {
	signature string
	segments  []protocol.RouteSegment
}

// NewRouteCache creates an empty cache backed by the given provider.
func NewRouteCache(provider RouteProvider) *RouteCache {
	return &RouteCache{
		provider: provider,
		days:     make(map[int64]dayRoutes),
	}
}

// SegmentsFor returns the travel segments for one day's ordered POI list,
// recomputing only when the order changed since the last call.
func (c *RouteCache) SegmentsFor(ctx context.Context, planDayID int64, ordered []protocol.Poi) []protocol.RouteSegment {
	sig := orderSignature(ordered)

	c.mu.Lock()
	if cached, ok := c.days[planDayID]; ok && cached.signature == sig {
		c.mu.Unlock()
		return cached.segments
	}
	c.mu.Unlock()

	segments := c.compute(ctx, ordered)

	c.mu.Lock()
	c.days[planDayID] = dayRoutes{signature: sig, segments: segments}
	c.mu.Unlock()
	return segments
}

// Invalidate drops the cached segments for one day.
func (c *RouteCache) Invalidate(planDayID int64) {
	c.mu.Lock()
	delete(c.days, planDayID)
	c.mu.Unlock()
}

// InvalidateAll drops every cached day (used on reconnect sync).
func (c *RouteCache) InvalidateAll() {
	c.mu.Lock()
	c.days = make(map[int64]dayRoutes)
	c.mu.Unlock()
}

func (c *RouteCache) compute(ctx context.Context, ordered []protocol.Poi) []protocol.RouteSegment {
	if len(ordered) < 2 || c.provider == nil {
		return nil
	}
	segments := make([]protocol.RouteSegment, 0, len(ordered)-1)
	for i := 0; i+1 < len(ordered); i++ {
		from, to := ordered[i], ordered[i+1]
		duration, distance, err := c.provider.Route(ctx, from.Latitude, from.Longitude, to.Latitude, to.Longitude)
		if err != nil {
			// Missing segment = no annotation, not an error.
			log.Printf("[RouteCache] segment %s -> %s unavailable: %v", from.ID, to.ID, err)
			continue
		}
		segments = append(segments, protocol.RouteSegment{
			FromPoiID: from.ID,
			ToPoiID:   to.ID,
			Duration:  duration,
			Distance:  distance,
		})
	}
	return segments
}

// orderSignature identifies a day's ordered POI list. Two lists with the same
// ids in the same order share a signature.
func orderSignature(ordered []protocol.Poi) string {
	var b strings.Builder
	for _, poi := range ordered {
		b.WriteString(poi.ID)
		b.WriteByte('|')
	}
	return b.String()
}
