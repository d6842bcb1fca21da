package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeIntent(t *testing.T) {
	env, err := NewEnvelope(IntentReorder, ReorderPayload{
		WorkspaceID:   1,
		PlanDayID:     4,
		OrderedPoiIDs: []string{"a", "b"},
	})
	require.NoError(t, err)

	decoded, err := DecodeIntent(env)
	require.NoError(t, err)

	payload, ok := decoded.(*ReorderPayload)
	require.True(t, ok)
	assert.Equal(t, int64(4), payload.PlanDayID)
	assert.Equal(t, []string{"a", "b"}, payload.OrderedPoiIDs)
}

func TestDecodeIntentScheduleKinds(t *testing.T) {
	// addToSchedule and removeFromSchedule share a payload shape; the
	// envelope type is what distinguishes them.
	for _, intentType := range []MessageType{IntentAddToSchedule, IntentRemoveFromSchedule} {
		env, err := NewEnvelope(intentType, SchedulePayload{WorkspaceID: 1, PoiID: "p", PlanDayID: 2})
		require.NoError(t, err)

		decoded, err := DecodeIntent(env)
		require.NoError(t, err)

		payload, ok := decoded.(*SchedulePayload)
		require.True(t, ok)
		assert.Equal(t, "p", payload.PoiID)
	}
}

func TestDecodeIntentLeaveHasNoPayload(t *testing.T) {
	decoded, err := DecodeIntent(Envelope{Type: IntentLeave})
	require.NoError(t, err)
	assert.Nil(t, decoded)
}

func TestDecodeIntentUnknownType(t *testing.T) {
	_, err := DecodeIntent(Envelope{Type: "teleport", Payload: json.RawMessage(`{}`)})
	assert.Error(t, err)

	// Event types arriving on the intent path are rejected, not coerced.
	_, err = DecodeIntent(Envelope{Type: EventSync, Payload: json.RawMessage(`{}`)})
	assert.Error(t, err)
}

func TestDecodeEvent(t *testing.T) {
	day := int64(2)
	env, err := NewEnvelope(EventSync, SyncPayload{Pois: []Poi{
		{ID: "a", Status: StatusMarked, Sequence: 0},
		{ID: "b", Status: StatusScheduled, PlanDayID: &day, Sequence: 0},
	}})
	require.NoError(t, err)

	decoded, err := DecodeEvent(env)
	require.NoError(t, err)

	payload, ok := decoded.(*SyncPayload)
	require.True(t, ok)
	require.Len(t, payload.Pois, 2)
	assert.Equal(t, StatusScheduled, payload.Pois[1].Status)
	require.NotNil(t, payload.Pois[1].PlanDayID)
	assert.Equal(t, int64(2), *payload.Pois[1].PlanDayID)
}

func TestDecodeEventUnknownType(t *testing.T) {
	_, err := DecodeEvent(Envelope{Type: "mark", Payload: json.RawMessage(`{}`)})
	assert.Error(t, err)
}

func TestEnvelopeWireFormat(t *testing.T) {
	env, err := NewEnvelope(EventPoiUnmarked, PoiUnmarkedPayload{PoiID: "x"})
	require.NoError(t, err)

	raw, err := json.Marshal(env)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"poiUnmarked","payload":{"poiId":"x"}}`, string(raw))
}
