package sync

import (
	"sort"
	stdsync "sync"

	"matetrip-backend/internal/protocol"
)

// Store holds the client-side view of every POI in one workspace. It is fed
// from two directions: optimistic local edits (drag & drop) and authoritative
// broadcast events from the plan hub. Authoritative events always win: each
// apply replaces the whole record for the ids it names, never merges.
//
// All methods are safe for concurrent use; the mutex serializes applies, so
// "last applied wins" is defined by arrival order into the Store API.
type Store struct {
	mu          stdsync.Mutex
	workspaceID int64
	pois        map[string]protocol.Poi
	listeners   []func()
}

// NewStore creates an empty store for one workspace session.
func NewStore(workspaceID int64) *Store {
	return &Store{
		workspaceID: workspaceID,
		pois:        make(map[string]protocol.Poi),
	}
}

// WorkspaceID returns the owning workspace id.
func (s *Store) WorkspaceID() int64 {
	return s.workspaceID
}

// OnChange registers a callback invoked after every mutation. Callbacks run
// outside the store lock, so they may read the store.
func (s *Store) OnChange(fn func()) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

func (s *Store) notify() {
	s.mu.Lock()
	listeners := make([]func(), len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}

// put normalizes and inserts one record under the lock. UNMARKED records are
// tombstones on the wire only; they are deleted, never stored.
func (s *Store) put(poi protocol.Poi) {
	if poi.Status == protocol.StatusUnmarked {
		delete(s.pois, poi.ID)
		return
	}
	// Enforce the status/planDayId exclusivity invariant on every write.
	if poi.PlanDayID == nil {
		poi.Status = protocol.StatusMarked
	} else {
		poi.Status = protocol.StatusScheduled
	}
	s.pois[poi.ID] = poi
}

// ApplySync replaces the whole collection with the server's canonical state.
// Called once per join/reconnect; any optimistic state not present in the
// snapshot is discarded.
func (s *Store) ApplySync(pois []protocol.Poi) {
	s.mu.Lock()
	s.pois = make(map[string]protocol.Poi, len(pois))
	for _, poi := range pois {
		poi.IsPersisted = true
		s.put(poi)
	}
	s.mu.Unlock()
	s.notify()
}

// ApplyUpsert inserts or replaces one POI by id (poiMarked).
func (s *Store) ApplyUpsert(poi protocol.Poi) {
	s.mu.Lock()
	poi.IsPersisted = true
	s.put(poi)
	s.mu.Unlock()
	s.notify()
}

// ApplyRemoval deletes one POI by id (poiUnmarked). Unknown ids are ignored.
func (s *Store) ApplyRemoval(poiID string) {
	s.mu.Lock()
	delete(s.pois, poiID)
	s.mu.Unlock()
	s.notify()
}

// ApplyScheduleChange sets status and planDayId together. A nil planDayID
// moves the POI back to the pool (MARKED); a non-nil one schedules it.
// Unknown ids are ignored.
func (s *Store) ApplyScheduleChange(poiID string, planDayID *int64) {
	s.mu.Lock()
	poi, ok := s.pois[poiID]
	if ok {
		poi.PlanDayID = planDayID
		if planDayID == nil {
			poi.Status = protocol.StatusMarked
		} else {
			poi.Status = protocol.StatusScheduled
		}
		poi.IsPersisted = true
		s.pois[poiID] = poi
	}
	s.mu.Unlock()
	if ok {
		s.notify()
	}
}

// ApplyReorder assigns sequence = position in orderedIDs to the POIs that are
// currently members of the named partition. Ids that are unknown or that sit
// in a different partition are ignored; members of the partition not named in
// the list keep their sequence untouched.
func (s *Store) ApplyReorder(key protocol.PartitionKey, orderedIDs []string) {
	s.mu.Lock()
	for i, id := range orderedIDs {
		poi, ok := s.pois[id]
		if !ok || poi.Partition() != key {
			continue
		}
		poi.Sequence = i
		s.pois[id] = poi
	}
	s.mu.Unlock()
	s.notify()
}

// MutateOptimistically applies a local, not-yet-acknowledged change as one
// atomic update. The updater sees (and may modify) the live collection; every
// record it writes back is re-normalized so no invariant-violating state can
// be observed, even transiently.
func (s *Store) MutateOptimistically(updater func(pois map[string]protocol.Poi)) {
	s.mu.Lock()
	updater(s.pois)
	for id, poi := range s.pois {
		if poi.Status == protocol.StatusUnmarked {
			delete(s.pois, id)
			continue
		}
		if poi.PlanDayID == nil {
			poi.Status = protocol.StatusMarked
		} else {
			poi.Status = protocol.StatusScheduled
		}
		s.pois[id] = poi
	}
	s.mu.Unlock()
	s.notify()
}

// Get returns one POI by id.
func (s *Store) Get(poiID string) (protocol.Poi, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	poi, ok := s.pois[poiID]
	return poi, ok
}

// Len returns the number of POIs currently held.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pois)
}

// Snapshot returns a copy of the collection sorted by id. Derived views
// (partitioning) are recomputed from snapshots, never from live maps.
func (s *Store) Snapshot() []protocol.Poi {
	s.mu.Lock()
	pois := make([]protocol.Poi, 0, len(s.pois))
	for _, poi := range s.pois {
		pois = append(pois, poi)
	}
	s.mu.Unlock()

	sort.Slice(pois, func(i, j int) bool { return pois[i].ID < pois[j].ID })
	return pois
}

// PartitionOrder returns the ids of the named partition's members sorted by
// sequence ascending (ties broken by id for determinism).
func (s *Store) PartitionOrder(key protocol.PartitionKey) []string {
	members := s.partitionMembers(key)
	ids := make([]string, len(members))
	for i, poi := range members {
		ids[i] = poi.ID
	}
	return ids
}

func (s *Store) partitionMembers(key protocol.PartitionKey) []protocol.Poi {
	pois := s.Snapshot()
	members := pois[:0]
	for _, poi := range pois {
		if poi.Partition() == key {
			members = append(members, poi)
		}
	}
	sort.SliceStable(members, func(i, j int) bool {
		if members[i].Sequence != members[j].Sequence {
			return members[i].Sequence < members[j].Sequence
		}
		return members[i].ID < members[j].ID
	})
	return members
}

// Event handler methods: the Store is the sink for the Channel's inbound
// broadcast stream (see channel.go).

func (s *Store) HandleSync(pois []protocol.Poi) {
	s.ApplySync(pois)
}

func (s *Store) HandlePoiMarked(poi protocol.Poi) {
	s.ApplyUpsert(poi)
}

func (s *Store) HandlePoiUnmarked(poiID string) {
	s.ApplyRemoval(poiID)
}

func (s *Store) HandleScheduleAdded(poiID string, planDayID int64) {
	s.ApplyScheduleChange(poiID, &planDayID)
}

func (s *Store) HandleScheduleRemoved(poiID string, planDayID int64) {
	// Stale removal for a day the POI no longer sits in must not yank it
	// out of its current partition.
	poi, ok := s.Get(poiID)
	if !ok || poi.PlanDayID == nil || *poi.PlanDayID != planDayID {
		return
	}
	s.ApplyScheduleChange(poiID, nil)
}

func (s *Store) HandleReordered(planDayID int64, poiIDs []string) {
	s.ApplyReorder(protocol.DayKey(planDayID), poiIDs)
}
