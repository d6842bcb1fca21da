package sync

import (
	"log"

	"matetrip-backend/internal/protocol"
)

// IntentSender delivers intents to the plan hub. Implemented by *Channel;
// tests substitute a recorder.
type IntentSender interface {
	SendIntent(t protocol.MessageType, payload any) error
}

// DropEvent describes one finished drag: which POI was picked up, the
// container it came from, and where it was let go. Container ids are the raw
// droppable / sortable-context ids; the planner normalizes both sides before
// comparing them.
type DropEvent struct {
	PoiID           string
	SourceContainer string
	TargetContainer string
	// TargetIndex is the drop position within the target partition.
	// Negative means "no position" (dropped on the container itself).
	TargetIndex int
}

// Planner turns drag & drop events into store updates and intents. It applies
// changes to the local store first (optimistic) and then emits the matching
// intents; the authoritative broadcast that follows overrides whatever the
// optimistic update wrote.
type Planner struct {
	store  *Store
	sender IntentSender
}

// NewPlanner creates a planner over one workspace store.
func NewPlanner(store *Store, sender IntentSender) *Planner {
	return &Planner{store: store, sender: sender}
}

// HandleDrop classifies a drop as an in-partition reorder or a cross-partition
// move and executes it. A drop without a resolvable target is a no-op: nothing
// was applied, so nothing is rolled back.
func (p *Planner) HandleDrop(ev DropEvent) {
	source, ok := protocol.PartitionKeyFromContainer(ev.SourceContainer)
	if !ok {
		log.Printf("[Planner] drop ignored: unresolvable source container %q", ev.SourceContainer)
		return
	}
	target, ok := protocol.PartitionKeyFromContainer(ev.TargetContainer)
	if !ok {
		// Dropped outside every droppable region.
		return
	}
	if _, ok := p.store.Get(ev.PoiID); !ok {
		log.Printf("[Planner] drop ignored: unknown poi %s", ev.PoiID)
		return
	}

	if source == target {
		p.reorderWithin(source, ev.PoiID, ev.TargetIndex)
		return
	}
	p.moveAcross(ev.PoiID, source, target)
}

// reorderWithin handles Case A: same partition, new position. Classic
// array-move semantics: remove first, then insert at the index computed on
// the shifted slice.
func (p *Planner) reorderWithin(key protocol.PartitionKey, poiID string, targetIndex int) {
	order := p.store.PartitionOrder(key)

	from := -1
	for i, id := range order {
		if id == poiID {
			from = i
			break
		}
	}
	if from < 0 {
		return
	}

	order = append(order[:from], order[from+1:]...)
	if targetIndex < 0 || targetIndex > len(order) {
		targetIndex = len(order)
	}
	order = append(order, "")
	copy(order[targetIndex+1:], order[targetIndex:])
	order[targetIndex] = poiID

	p.store.ApplyReorder(key, order)

	// Pool order is local-only presentation state; only day orders are
	// meaningful to the rest of the workspace.
	if dayID, isDay := key.DayID(); isDay {
		p.send(protocol.IntentReorder, protocol.ReorderPayload{
			WorkspaceID:   p.store.WorkspaceID(),
			PlanDayID:     dayID,
			OrderedPoiIDs: order,
		})
	}
}

// moveAcross handles Case B: the POI changes partition. The optimistic update
// appends it to the target and reindexes both partitions in one atomic store
// mutation; then the remove/add intents go out in that order so the server
// clears the previous day record before writing the new one.
func (p *Planner) moveAcross(poiID string, source, target protocol.PartitionKey) {
	var prevDayID *int64
	var persisted bool

	p.store.MutateOptimistically(func(pois map[string]protocol.Poi) {
		poi, ok := pois[poiID]
		if !ok {
			return
		}
		prevDayID = poi.PlanDayID
		persisted = poi.IsPersisted

		// Append to the target partition.
		end := 0
		for _, other := range pois {
			if other.ID != poiID && other.Partition() == target {
				end++
			}
		}
		if dayID, isDay := target.DayID(); isDay {
			d := dayID
			poi.PlanDayID = &d
			poi.Status = protocol.StatusScheduled
		} else {
			poi.PlanDayID = nil
			poi.Status = protocol.StatusMarked
		}
		poi.Sequence = end
		pois[poiID] = poi

		// Reindex both sides so each partition's sequences come out dense.
		// Schedule broadcasts carry no sequence, so the target may hold gaps
		// from remote adds; renumbering the other members to 0..n-1 keeps the
		// moved POI on the last slot.
		reindexPartition(pois, target, poiID)
		reindexPartition(pois, source, poiID)
	})

	workspaceID := p.store.WorkspaceID()
	if prevDayID != nil && persisted {
		p.send(protocol.IntentRemoveFromSchedule, protocol.SchedulePayload{
			WorkspaceID: workspaceID,
			PoiID:       poiID,
			PlanDayID:   *prevDayID,
		})
	}
	if dayID, isDay := target.DayID(); isDay {
		p.send(protocol.IntentAddToSchedule, protocol.SchedulePayload{
			WorkspaceID: workspaceID,
			PoiID:       poiID,
			PlanDayID:   dayID,
		})
	}
	// Moving into the pool needs no intent: the pool has no server-side
	// membership beyond status = MARKED, which removeFromSchedule restores.
}

// reindexPartition renumbers the members of key (except skip) to 0..n-1,
// preserving their current relative order.
func reindexPartition(pois map[string]protocol.Poi, key protocol.PartitionKey, skipID string) {
	type entry struct {
		id  string
		seq int
	}
	var members []entry
	for id, poi := range pois {
		if id != skipID && poi.Partition() == key {
			members = append(members, entry{id: id, seq: poi.Sequence})
		}
	}
	// Insertion sort by (sequence, id); partitions are small.
	for i := 1; i < len(members); i++ {
		for j := i; j > 0; j-- {
			if members[j].seq < members[j-1].seq ||
				(members[j].seq == members[j-1].seq && members[j].id < members[j-1].id) {
				members[j], members[j-1] = members[j-1], members[j]
			} else {
				break
			}
		}
	}
	for i, m := range members {
		poi := pois[m.id]
		poi.Sequence = i
		pois[m.id] = poi
	}
}

func (p *Planner) send(t protocol.MessageType, payload any) {
	if p.sender == nil {
		return
	}
	if err := p.sender.SendIntent(t, payload); err != nil {
		// Lost intents are re-derived from current UI state on retry; the
		// next sync reconciles whatever the server actually saw.
		log.Printf("[Planner] failed to send %s intent: %v", t, err)
	}
}
