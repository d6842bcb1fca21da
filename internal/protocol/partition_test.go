package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartitionKeyFromContainer(t *testing.T) {
	tests := []struct {
		name      string
		container string
		want      PartitionKey
		ok        bool
	}{
		{"pool", "pool", PoolKey(), true},
		{"pool sortable context", "pool-items", PoolKey(), true},
		{"day", "day:7", DayKey(7), true},
		{"day sortable context", "day:7-items", DayKey(7), true},
		{"whitespace", "  day:7-items  ", DayKey(7), true},
		{"unknown container", "sidebar", PartitionKey{}, false},
		{"day without id", "day:", PartitionKey{}, false},
		{"day with garbage id", "day:abc", PartitionKey{}, false},
		{"empty", "", PartitionKey{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := PartitionKeyFromContainer(tt.container)
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestPartitionKeyRoundTrip(t *testing.T) {
	for _, key := range []PartitionKey{PoolKey(), DayKey(1), DayKey(42)} {
		got, ok := PartitionKeyFromContainer(key.ContainerID())
		require.True(t, ok)
		assert.Equal(t, key, got)

		// Sortable context ids normalize to the same key as the plain id.
		got, ok = PartitionKeyFromContainer(key.ContainerID() + "-items")
		require.True(t, ok)
		assert.Equal(t, key, got)
	}
}

func TestPoiPartition(t *testing.T) {
	day := int64(3)

	assert.Equal(t, PoolKey(), Poi{ID: "a", Status: StatusMarked}.Partition())
	assert.Equal(t, DayKey(3), Poi{ID: "b", Status: StatusScheduled, PlanDayID: &day}.Partition())

	// SCHEDULED without a day never resolves to a day partition.
	assert.Equal(t, PoolKey(), Poi{ID: "c", Status: StatusScheduled}.Partition())
}

func TestPartitionKeyString(t *testing.T) {
	assert.Equal(t, "pool", PoolKey().String())
	assert.Equal(t, "day:9", DayKey(9).String())
}
