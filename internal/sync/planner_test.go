package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matetrip-backend/internal/protocol"
)

// recordingSender captures intents instead of writing to a websocket.
type recordingSender struct {
	sent []sentIntent
}

type sentIntent struct {
	Type    protocol.MessageType
	Payload any
}

func (r *recordingSender) SendIntent(t protocol.MessageType, payload any) error {
	r.sent = append(r.sent, sentIntent{Type: t, Payload: payload})
	return nil
}

func newTestPlanner(t *testing.T, pois []protocol.Poi) (*Planner, *Store, *recordingSender) {
	t.Helper()
	store := NewStore(1)
	store.ApplySync(pois)
	sender := &recordingSender{}
	return NewPlanner(store, sender), store, sender
}

func dayPois(dayID int64, ids ...string) []protocol.Poi {
	pois := make([]protocol.Poi, len(ids))
	for i, id := range ids {
		d := dayID
		pois[i] = protocol.Poi{
			ID:        id,
			Status:    protocol.StatusScheduled,
			PlanDayID: &d,
			Sequence:  i,
		}
	}
	return pois
}

func TestReorderWithinDay(t *testing.T) {
	planner, store, sender := newTestPlanner(t, dayPois(1, "a", "b", "c", "d"))

	// Drag "a" to index 2. Array-move semantics: remove first, insert on
	// the shifted slice, so [a b c d] -> [b c a d].
	planner.HandleDrop(DropEvent{
		PoiID:           "a",
		SourceContainer: "day:1-items",
		TargetContainer: "day:1-items",
		TargetIndex:     2,
	})

	assert.Equal(t, []string{"b", "c", "a", "d"}, store.PartitionOrder(protocol.DayKey(1)))

	require.Len(t, sender.sent, 1)
	assert.Equal(t, protocol.IntentReorder, sender.sent[0].Type)
	payload := sender.sent[0].Payload.(protocol.ReorderPayload)
	assert.Equal(t, int64(1), payload.PlanDayID)
	assert.Equal(t, []string{"b", "c", "a", "d"}, payload.OrderedPoiIDs)
}

func TestReorderToEndWithNegativeIndex(t *testing.T) {
	planner, store, _ := newTestPlanner(t, dayPois(1, "a", "b", "c"))

	planner.HandleDrop(DropEvent{
		PoiID:           "a",
		SourceContainer: "day:1",
		TargetContainer: "day:1",
		TargetIndex:     -1,
	})

	assert.Equal(t, []string{"b", "c", "a"}, store.PartitionOrder(protocol.DayKey(1)))
}

func TestPoolReorderIsLocalOnly(t *testing.T) {
	pois := []protocol.Poi{
		{ID: "a", Status: protocol.StatusMarked, Sequence: 0},
		{ID: "b", Status: protocol.StatusMarked, Sequence: 1},
	}
	planner, store, sender := newTestPlanner(t, pois)

	planner.HandleDrop(DropEvent{
		PoiID:           "a",
		SourceContainer: "pool-items",
		TargetContainer: "pool-items",
		TargetIndex:     1,
	})

	assert.Equal(t, []string{"b", "a"}, store.PartitionOrder(protocol.PoolKey()))
	assert.Empty(t, sender.sent, "pool order is presentation state, never an intent")
}

func TestMoveAcrossDays(t *testing.T) {
	pois := append(dayPois(1, "x", "y"), dayPois(2, "z")...)
	planner, store, sender := newTestPlanner(t, pois)

	planner.HandleDrop(DropEvent{
		PoiID:           "y",
		SourceContainer: "day:1-items",
		TargetContainer: "day:2-items",
		TargetIndex:     -1,
	})

	// Optimistic result: y appended to day 2, day 1 resequenced.
	assert.Equal(t, []string{"x"}, store.PartitionOrder(protocol.DayKey(1)))
	assert.Equal(t, []string{"z", "y"}, store.PartitionOrder(protocol.DayKey(2)))

	y, _ := store.Get("y")
	assert.Equal(t, 1, y.Sequence)
	assert.Equal(t, protocol.StatusScheduled, y.Status)

	// Intent order matters: the server must clear day 1 before writing day 2.
	require.Len(t, sender.sent, 2)
	assert.Equal(t, protocol.IntentRemoveFromSchedule, sender.sent[0].Type)
	remove := sender.sent[0].Payload.(protocol.SchedulePayload)
	assert.Equal(t, int64(1), remove.PlanDayID)

	assert.Equal(t, protocol.IntentAddToSchedule, sender.sent[1].Type)
	add := sender.sent[1].Payload.(protocol.SchedulePayload)
	assert.Equal(t, int64(2), add.PlanDayID)
}

func TestMoveIntoGappedDayReindexesTarget(t *testing.T) {
	// Schedule broadcasts carry no sequence, so a remote add can leave the
	// local day with gaps. A drop into that day must still produce dense
	// 0..n-1 sequences with the dragged POI last.
	pois := []protocol.Poi{
		{ID: "p", Status: protocol.StatusMarked, Sequence: 0},
		{ID: "a", Status: protocol.StatusScheduled, PlanDayID: dayPtr(2), Sequence: 0},
		{ID: "b", Status: protocol.StatusScheduled, PlanDayID: dayPtr(2), Sequence: 5},
	}
	planner, store, _ := newTestPlanner(t, pois)

	planner.HandleDrop(DropEvent{
		PoiID:           "p",
		SourceContainer: "pool",
		TargetContainer: "day:2",
		TargetIndex:     -1,
	})

	assert.Equal(t, []string{"a", "b", "p"}, store.PartitionOrder(protocol.DayKey(2)))

	seqs := make(map[string]int)
	for _, poi := range store.Snapshot() {
		if poi.PlanDayID != nil && *poi.PlanDayID == 2 {
			seqs[poi.ID] = poi.Sequence
		}
	}
	assert.Equal(t, map[string]int{"a": 0, "b": 1, "p": 2}, seqs)
}

func TestMovePoolToDaySendsOnlyAdd(t *testing.T) {
	pois := []protocol.Poi{{ID: "a", Status: protocol.StatusMarked, Sequence: 0}}
	planner, store, sender := newTestPlanner(t, pois)

	planner.HandleDrop(DropEvent{
		PoiID:           "a",
		SourceContainer: "pool",
		TargetContainer: "day:3",
		TargetIndex:     -1,
	})

	assert.Equal(t, []string{"a"}, store.PartitionOrder(protocol.DayKey(3)))

	// Nothing to remove: the POI had no previous day.
	require.Len(t, sender.sent, 1)
	assert.Equal(t, protocol.IntentAddToSchedule, sender.sent[0].Type)
}

func TestMoveDayToPoolSendsOnlyRemove(t *testing.T) {
	planner, store, sender := newTestPlanner(t, dayPois(1, "a", "b"))

	planner.HandleDrop(DropEvent{
		PoiID:           "a",
		SourceContainer: "day:1",
		TargetContainer: "pool",
		TargetIndex:     -1,
	})

	a, _ := store.Get("a")
	assert.Equal(t, protocol.StatusMarked, a.Status)
	assert.Nil(t, a.PlanDayID)
	assert.Equal(t, []string{"b"}, store.PartitionOrder(protocol.DayKey(1)))

	require.Len(t, sender.sent, 1)
	assert.Equal(t, protocol.IntentRemoveFromSchedule, sender.sent[0].Type)
}

func TestMoveUnpersistedPoiSkipsRemoveIntent(t *testing.T) {
	store := NewStore(1)
	// Optimistic-only POI sitting on day 1: the server has no record of it,
	// so a removeFromSchedule intent would be meaningless.
	store.MutateOptimistically(func(pois map[string]protocol.Poi) {
		pois["tmp"] = protocol.Poi{
			ID:        "tmp",
			Status:    protocol.StatusScheduled,
			PlanDayID: dayPtr(1),
		}
	})
	sender := &recordingSender{}
	planner := NewPlanner(store, sender)

	planner.HandleDrop(DropEvent{
		PoiID:           "tmp",
		SourceContainer: "day:1",
		TargetContainer: "day:2",
		TargetIndex:     -1,
	})

	require.Len(t, sender.sent, 1)
	assert.Equal(t, protocol.IntentAddToSchedule, sender.sent[0].Type)
}

func TestDropOutsideDroppableRegionIsNoop(t *testing.T) {
	planner, store, sender := newTestPlanner(t, dayPois(1, "a", "b"))
	before := store.Snapshot()

	planner.HandleDrop(DropEvent{
		PoiID:           "a",
		SourceContainer: "day:1-items",
		TargetContainer: "",
		TargetIndex:     0,
	})

	assert.Equal(t, before, store.Snapshot())
	assert.Empty(t, sender.sent)
}

func TestDropUnknownPoiIsNoop(t *testing.T) {
	planner, store, sender := newTestPlanner(t, dayPois(1, "a"))
	before := store.Snapshot()

	planner.HandleDrop(DropEvent{
		PoiID:           "ghost",
		SourceContainer: "day:1",
		TargetContainer: "pool",
		TargetIndex:     -1,
	})

	assert.Equal(t, before, store.Snapshot())
	assert.Empty(t, sender.sent)
}

func TestContainerIDNormalization(t *testing.T) {
	// A drag reported with the sortable context id on one side and the
	// droppable id on the other must still classify as an in-partition
	// reorder, never a cross-partition move.
	planner, store, sender := newTestPlanner(t, dayPois(1, "a", "b"))

	planner.HandleDrop(DropEvent{
		PoiID:           "a",
		SourceContainer: "day:1-items",
		TargetContainer: "day:1",
		TargetIndex:     1,
	})

	assert.Equal(t, []string{"b", "a"}, store.PartitionOrder(protocol.DayKey(1)))
	require.Len(t, sender.sent, 1)
	assert.Equal(t, protocol.IntentReorder, sender.sent[0].Type)
}
