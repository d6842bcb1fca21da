package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matetrip-backend/internal/protocol"
)

func dayPtr(id int64) *int64 {
	return &id
}

func TestApplySyncReplacesEverything(t *testing.T) {
	store := NewStore(1)

	// Optimistic local state that the server never saw.
	store.MutateOptimistically(func(pois map[string]protocol.Poi) {
		pois["local"] = protocol.Poi{ID: "local", Status: protocol.StatusMarked}
	})
	require.Equal(t, 1, store.Len())

	store.ApplySync([]protocol.Poi{
		{ID: "a", Status: protocol.StatusMarked, Sequence: 0},
		{ID: "b", Status: protocol.StatusScheduled, PlanDayID: dayPtr(2), Sequence: 0},
	})

	assert.Equal(t, 2, store.Len())
	_, ok := store.Get("local")
	assert.False(t, ok, "optimistic state must be discarded by sync")

	a, _ := store.Get("a")
	assert.True(t, a.IsPersisted)
}

func TestStatusPlanDayExclusivity(t *testing.T) {
	store := NewStore(1)

	// A record claiming SCHEDULED without a day is normalized to MARKED.
	store.ApplyUpsert(protocol.Poi{ID: "a", Status: protocol.StatusScheduled})
	a, ok := store.Get("a")
	require.True(t, ok)
	assert.Equal(t, protocol.StatusMarked, a.Status)

	// A record claiming MARKED with a day is normalized to SCHEDULED.
	store.ApplyUpsert(protocol.Poi{ID: "b", Status: protocol.StatusMarked, PlanDayID: dayPtr(3)})
	b, ok := store.Get("b")
	require.True(t, ok)
	assert.Equal(t, protocol.StatusScheduled, b.Status)

	// UNMARKED is a tombstone: never stored.
	store.ApplyUpsert(protocol.Poi{ID: "a", Status: protocol.StatusUnmarked})
	_, ok = store.Get("a")
	assert.False(t, ok)
}

func TestRemoteEventOverridesOptimisticState(t *testing.T) {
	store := NewStore(1)
	store.ApplySync([]protocol.Poi{{ID: "a", Status: protocol.StatusMarked, Sequence: 0}})

	// Local drag put it on day 5.
	store.MutateOptimistically(func(pois map[string]protocol.Poi) {
		poi := pois["a"]
		poi.PlanDayID = dayPtr(5)
		pois["a"] = poi
	})

	// Server says day 7. Remote wins, no merge.
	store.HandleScheduleAdded("a", 7)

	a, _ := store.Get("a")
	require.NotNil(t, a.PlanDayID)
	assert.Equal(t, int64(7), *a.PlanDayID)
	assert.Equal(t, protocol.StatusScheduled, a.Status)
}

func TestStaleScheduleRemovedIsIgnored(t *testing.T) {
	store := NewStore(1)
	store.ApplySync([]protocol.Poi{
		{ID: "a", Status: protocol.StatusScheduled, PlanDayID: dayPtr(2), Sequence: 0},
	})

	// Removal for a day it no longer sits in must not move it.
	store.HandleScheduleRemoved("a", 9)
	a, _ := store.Get("a")
	require.NotNil(t, a.PlanDayID)
	assert.Equal(t, int64(2), *a.PlanDayID)

	// Removal for the current day moves it back to the pool.
	store.HandleScheduleRemoved("a", 2)
	a, _ = store.Get("a")
	assert.Nil(t, a.PlanDayID)
	assert.Equal(t, protocol.StatusMarked, a.Status)
}

func TestDuplicateEventsAreIdempotent(t *testing.T) {
	store := NewStore(1)
	store.HandlePoiMarked(protocol.Poi{ID: "a", Status: protocol.StatusMarked, Sequence: 0})
	store.HandlePoiMarked(protocol.Poi{ID: "a", Status: protocol.StatusMarked, Sequence: 0})
	assert.Equal(t, 1, store.Len())

	store.HandlePoiUnmarked("a")
	store.HandlePoiUnmarked("a")
	assert.Equal(t, 0, store.Len())

	// Events for unknown ids are silently dropped.
	store.HandleScheduleAdded("ghost", 1)
	assert.Equal(t, 0, store.Len())
}

func TestScheduleAddedKeepsExistingSequence(t *testing.T) {
	// Schedule events carry no sequence; the record keeps its old one until
	// a reordered or sync broadcast rewrites it. Only membership (status +
	// day) converges on this event.
	store := NewStore(1)
	store.ApplySync([]protocol.Poi{
		{ID: "a", Status: protocol.StatusScheduled, PlanDayID: dayPtr(1), Sequence: 3},
	})

	store.HandleScheduleAdded("a", 2)

	a, ok := store.Get("a")
	require.True(t, ok)
	assert.Equal(t, protocol.StatusScheduled, a.Status)
	assert.Equal(t, int64(2), *a.PlanDayID)
	assert.Equal(t, 3, a.Sequence)
}

func TestApplyReorderSkipsForeignIDs(t *testing.T) {
	store := NewStore(1)
	store.ApplySync([]protocol.Poi{
		{ID: "a", Status: protocol.StatusScheduled, PlanDayID: dayPtr(1), Sequence: 0},
		{ID: "b", Status: protocol.StatusScheduled, PlanDayID: dayPtr(1), Sequence: 1},
		{ID: "c", Status: protocol.StatusScheduled, PlanDayID: dayPtr(2), Sequence: 0},
	})

	// "c" sits in day 2 and "ghost" does not exist; both are ignored.
	store.ApplyReorder(protocol.DayKey(1), []string{"b", "ghost", "c", "a"})

	assert.Equal(t, []string{"b", "a"}, store.PartitionOrder(protocol.DayKey(1)))
	c, _ := store.Get("c")
	assert.Equal(t, 0, c.Sequence, "poi outside the partition keeps its sequence")
}

func TestPartialReorderKeepsUnnamedMembers(t *testing.T) {
	store := NewStore(1)
	store.ApplySync([]protocol.Poi{
		{ID: "a", Status: protocol.StatusScheduled, PlanDayID: dayPtr(1), Sequence: 0},
		{ID: "b", Status: protocol.StatusScheduled, PlanDayID: dayPtr(1), Sequence: 1},
		{ID: "c", Status: protocol.StatusScheduled, PlanDayID: dayPtr(1), Sequence: 2},
	})

	// Only b and a are named: c keeps sequence 2.
	store.ApplyReorder(protocol.DayKey(1), []string{"b", "a"})

	b, _ := store.Get("b")
	a, _ := store.Get("a")
	c, _ := store.Get("c")
	assert.Equal(t, 0, b.Sequence)
	assert.Equal(t, 1, a.Sequence)
	assert.Equal(t, 2, c.Sequence)
}

func TestPartitionOrderTieBreaksByID(t *testing.T) {
	store := NewStore(1)
	store.ApplySync([]protocol.Poi{
		{ID: "z", Status: protocol.StatusMarked, Sequence: 0},
		{ID: "a", Status: protocol.StatusMarked, Sequence: 0},
	})

	assert.Equal(t, []string{"a", "z"}, store.PartitionOrder(protocol.PoolKey()))
}

func TestOnChangeFiresAfterMutation(t *testing.T) {
	store := NewStore(1)

	var observed int
	store.OnChange(func() {
		// Listener may read the store; it runs outside the lock.
		observed = store.Len()
	})

	store.ApplyUpsert(protocol.Poi{ID: "a", Status: protocol.StatusMarked})
	assert.Equal(t, 1, observed)
}
