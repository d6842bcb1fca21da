package protocol

import (
	"fmt"
	"strconv"
	"strings"
)

// PartitionKey identifies the list a POI belongs to: the unscheduled pool or
// one plan day. Drag sources and drop targets must both go through
// PartitionKeyFromContainer so that "pool" and "pool-items" style container ids
// can never be compared as different partitions.
type PartitionKey struct {
	dayID int64
	isDay bool
}

// PoolKey 보관함(풀) 파티션 키
func PoolKey() PartitionKey {
	return PartitionKey{}
}

// DayKey 일차 파티션 키
func DayKey(planDayID int64) PartitionKey {
	return PartitionKey{dayID: planDayID, isDay: true}
}

// IsPool reports whether the key names the unscheduled pool.
func (k PartitionKey) IsPool() bool {
	return !k.isDay
}

// DayID returns the plan day id and whether the key names a day partition.
func (k PartitionKey) DayID() (int64, bool) {
	return k.dayID, k.isDay
}

func (k PartitionKey) String() string {
	if k.isDay {
		return "day:" + strconv.FormatInt(k.dayID, 10)
	}
	return "pool"
}

const (
	poolContainerID    = "pool"
	dayContainerPrefix = "day:"
	// sortable context ids wrap the droppable container id with this suffix
	sortableSuffix = "-items"
)

// PartitionKeyFromContainer normalizes a droppable container id or a sortable
// context id to a canonical partition key. Returns false when the id does not
// resolve to any partition (drop outside every droppable region).
func PartitionKeyFromContainer(containerID string) (PartitionKey, bool) {
	id := strings.TrimSuffix(strings.TrimSpace(containerID), sortableSuffix)
	if id == poolContainerID {
		return PoolKey(), true
	}
	if rest, ok := strings.CutPrefix(id, dayContainerPrefix); ok {
		dayID, err := strconv.ParseInt(rest, 10, 64)
		if err != nil {
			return PartitionKey{}, false
		}
		return DayKey(dayID), true
	}
	return PartitionKey{}, false
}

// ContainerID returns the droppable container id for this key.
func (k PartitionKey) ContainerID() string {
	if k.isDay {
		return fmt.Sprintf("%s%d", dayContainerPrefix, k.dayID)
	}
	return poolContainerID
}
