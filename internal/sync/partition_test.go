package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matetrip-backend/internal/protocol"
)

func TestPartitionSplitsPoolAndDays(t *testing.T) {
	layers := []DayLayer{NewDayLayer(1, "1일차"), NewDayLayer(2, "2일차")}
	pois := []protocol.Poi{
		{ID: "p1", Status: protocol.StatusMarked, Sequence: 1},
		{ID: "p0", Status: protocol.StatusMarked, Sequence: 0},
		{ID: "d1a", Status: protocol.StatusScheduled, PlanDayID: dayPtr(1), Sequence: 0},
		{ID: "d2a", Status: protocol.StatusScheduled, PlanDayID: dayPtr(2), Sequence: 0},
		{ID: "d1b", Status: protocol.StatusScheduled, PlanDayID: dayPtr(1), Sequence: 1},
	}

	view := Partition(pois, layers)

	require.Len(t, view.Pool, 2)
	assert.Equal(t, "p0", view.Pool[0].ID)
	assert.Equal(t, "p1", view.Pool[1].ID)

	require.Len(t, view.ByDay[1], 2)
	assert.Equal(t, "d1a", view.ByDay[1][0].ID)
	assert.Equal(t, "d1b", view.ByDay[1][1].ID)
	require.Len(t, view.ByDay[2], 1)
}

func TestPartitionIsDeterministic(t *testing.T) {
	layers := []DayLayer{NewDayLayer(1, "1일차")}
	pois := []protocol.Poi{
		{ID: "b", Status: protocol.StatusScheduled, PlanDayID: dayPtr(1), Sequence: 0},
		{ID: "a", Status: protocol.StatusScheduled, PlanDayID: dayPtr(1), Sequence: 0},
		{ID: "c", Status: protocol.StatusScheduled, PlanDayID: dayPtr(1), Sequence: 1},
	}

	first := Partition(pois, layers)
	for i := 0; i < 10; i++ {
		again := Partition(pois, layers)
		assert.Equal(t, first.ByDay[1], again.ByDay[1])
	}

	// Equal sequences tie-break by id.
	assert.Equal(t, "a", first.ByDay[1][0].ID)
	assert.Equal(t, "b", first.ByDay[1][1].ID)
}

func TestPartitionDropsDaysOutsideTripSpan(t *testing.T) {
	layers := []DayLayer{NewDayLayer(1, "1일차")}
	pois := []protocol.Poi{
		{ID: "in", Status: protocol.StatusScheduled, PlanDayID: dayPtr(1), Sequence: 0},
		{ID: "out", Status: protocol.StatusScheduled, PlanDayID: dayPtr(99), Sequence: 0},
	}

	view := Partition(pois, layers)

	require.Len(t, view.ByDay, 1)
	require.Len(t, view.ByDay[1], 1)
	assert.Equal(t, "in", view.ByDay[1][0].ID)
	assert.Empty(t, view.Pool, "a scheduled poi never leaks into the pool")
}

func TestPartitionEmptyDayStillPresent(t *testing.T) {
	layers := []DayLayer{NewDayLayer(1, "1일차"), NewDayLayer(2, "2일차")}
	view := Partition(nil, layers)

	// Every trip day gets an entry even with no pois, so the UI can render
	// empty droppable containers.
	assert.Len(t, view.ByDay, 2)
	assert.Empty(t, view.ByDay[1])
	assert.Empty(t, view.ByDay[2])
}

func TestColorForDayIsStable(t *testing.T) {
	for _, id := range []int64{1, 2, 3, 77, 1024} {
		first := ColorForDay(id)
		assert.Equal(t, first, ColorForDay(id))
		assert.Contains(t, dayPalette, first)
	}
}
