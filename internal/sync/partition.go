package sync

import (
	"hash/fnv"
	"sort"

	"matetrip-backend/internal/protocol"
)

// DayLayer 지도 레이어 하나 (일차별 마커/경로 색 구분용). Derived, never persisted.
type DayLayer struct {
	ID    int64
	Label string
	Color string
}

// dayPalette 일차별 경로/마커 색상. 색은 id에서 결정적으로 유도된다.
var dayPalette = []string{
	"#ef4444", "#f97316", "#eab308", "#22c55e",
	"#06b6d4", "#3b82f6", "#8b5cf6", "#ec4899",
}

// ColorForDay derives a stable color for a plan day id. Equal ids always map
// to the same color, on every client.
func ColorForDay(planDayID int64) string {
	h := fnv.New32a()
	var buf [8]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(planDayID >> (8 * i))
	}
	h.Write(buf[:])
	return dayPalette[h.Sum32()%uint32(len(dayPalette))]
}

// NewDayLayer builds a DayLayer for one plan day.
func NewDayLayer(planDayID int64, label string) DayLayer {
	return DayLayer{ID: planDayID, Label: label, Color: ColorForDay(planDayID)}
}

// PartitionedView 파티션 엔진의 결과: 보관함 목록과 일차별 일정 목록.
type PartitionedView struct {
	Pool   []protocol.Poi
	ByDay  map[int64][]protocol.Poi
	Layers []DayLayer
}

// Partition derives the per-partition ordered views from a flat POI
// collection. Pure function: no side effects, equal inputs yield identical
// output ordering (sequence ascending, ties broken by id).
func Partition(pois []protocol.Poi, layers []DayLayer) PartitionedView {
	view := PartitionedView{
		ByDay:  make(map[int64][]protocol.Poi, len(layers)),
		Layers: layers,
	}
	for _, layer := range layers {
		view.ByDay[layer.ID] = nil
	}

	for _, poi := range pois {
		switch poi.Status {
		case protocol.StatusMarked:
			view.Pool = append(view.Pool, poi)
		case protocol.StatusScheduled:
			if poi.PlanDayID == nil {
				continue // invariant violation upstream; never render it
			}
			dayID := *poi.PlanDayID
			if _, ok := view.ByDay[dayID]; !ok {
				continue // day outside the trip span
			}
			view.ByDay[dayID] = append(view.ByDay[dayID], poi)
		}
	}

	sortPartition(view.Pool)
	for _, members := range view.ByDay {
		sortPartition(members)
	}
	return view
}

func sortPartition(members []protocol.Poi) {
	sort.SliceStable(members, func(i, j int) bool {
		if members[i].Sequence != members[j].Sequence {
			return members[i].Sequence < members[j].Sequence
		}
		return members[i].ID < members[j].ID
	})
}
