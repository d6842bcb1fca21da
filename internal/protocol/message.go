package protocol

import (
	"encoding/json"
	"fmt"
)

// MessageType WebSocket 메시지 타입 (intent와 broadcast event 모두 포함)
type MessageType string

// Client → server intents.
const (
	IntentMark               MessageType = "mark"
	IntentUnmark             MessageType = "unmark"
	IntentAddToSchedule      MessageType = "addToSchedule"
	IntentRemoveFromSchedule MessageType = "removeFromSchedule"
	IntentReorder            MessageType = "reorder"
	IntentLeave              MessageType = "leave"
)

// Server → client broadcast events.
const (
	EventSync            MessageType = "sync"
	EventPoiMarked       MessageType = "poiMarked"
	EventPoiUnmarked     MessageType = "poiUnmarked"
	EventScheduleAdded   MessageType = "scheduleAdded"
	EventScheduleRemoved MessageType = "scheduleRemoved"
	EventReordered       MessageType = "reordered"
)

// Envelope WebSocket 메시지 외피
type Envelope struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// MarkPayload mark intent 페이로드
type MarkPayload struct {
	WorkspaceID  int64   `json:"workspaceId"`
	CreatedBy    int64   `json:"createdBy"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	Address      string  `json:"address"`
	PlaceName    string  `json:"placeName,omitempty"`
	CategoryName string  `json:"categoryName,omitempty"`
}

// UnmarkPayload unmark intent 페이로드
type UnmarkPayload struct {
	WorkspaceID int64  `json:"workspaceId"`
	PoiID       string `json:"poiId"`
}

// SchedulePayload addToSchedule / removeFromSchedule intent 페이로드
type SchedulePayload struct {
	WorkspaceID int64  `json:"workspaceId"`
	PoiID       string `json:"poiId"`
	PlanDayID   int64  `json:"planDayId"`
}

// ReorderPayload reorder intent 페이로드
type ReorderPayload struct {
	WorkspaceID   int64    `json:"workspaceId"`
	PlanDayID     int64    `json:"planDayId"`
	OrderedPoiIDs []string `json:"orderedPoiIds"`
}

// SyncPayload sync event 페이로드 (워크스페이스 POI 전체)
type SyncPayload struct {
	Pois []Poi `json:"pois"`
}

// PoiMarkedPayload poiMarked event 페이로드
type PoiMarkedPayload struct {
	Poi Poi `json:"poi"`
}

// PoiUnmarkedPayload poiUnmarked event 페이로드
type PoiUnmarkedPayload struct {
	PoiID string `json:"poiId"`
}

// ScheduleEventPayload scheduleAdded / scheduleRemoved event 페이로드
type ScheduleEventPayload struct {
	PoiID     string `json:"poiId"`
	PlanDayID int64  `json:"planDayId"`
}

// ReorderedPayload reordered event 페이로드
type ReorderedPayload struct {
	PlanDayID int64    `json:"planDayId"`
	PoiIDs    []string `json:"poiIds"`
}

// NewEnvelope marshals a payload into an envelope of the given type.
func NewEnvelope(t MessageType, payload any) (Envelope, error) {
	if payload == nil {
		return Envelope{Type: t}, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("failed to marshal %s payload: %w", t, err)
	}
	return Envelope{Type: t, Payload: raw}, nil
}

// DecodeIntent parses an intent envelope into its typed payload. The switch is
// exhaustive over the intent kinds; unknown types are an error, not a panic.
func DecodeIntent(env Envelope) (any, error) {
	switch env.Type {
	case IntentMark:
		var p MarkPayload
		return &p, json.Unmarshal(env.Payload, &p)
	case IntentUnmark:
		var p UnmarkPayload
		return &p, json.Unmarshal(env.Payload, &p)
	case IntentAddToSchedule, IntentRemoveFromSchedule:
		var p SchedulePayload
		return &p, json.Unmarshal(env.Payload, &p)
	case IntentReorder:
		var p ReorderPayload
		return &p, json.Unmarshal(env.Payload, &p)
	case IntentLeave:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown intent type: %s", env.Type)
	}
}

// DecodeEvent parses a broadcast event envelope into its typed payload.
func DecodeEvent(env Envelope) (any, error) {
	switch env.Type {
	case EventSync:
		var p SyncPayload
		return &p, json.Unmarshal(env.Payload, &p)
	case EventPoiMarked:
		var p PoiMarkedPayload
		return &p, json.Unmarshal(env.Payload, &p)
	case EventPoiUnmarked:
		var p PoiUnmarkedPayload
		return &p, json.Unmarshal(env.Payload, &p)
	case EventScheduleAdded, EventScheduleRemoved:
		var p ScheduleEventPayload
		return &p, json.Unmarshal(env.Payload, &p)
	case EventReordered:
		var p ReorderedPayload
		return &p, json.Unmarshal(env.Payload, &p)
	default:
		return nil, fmt.Errorf("unknown event type: %s", env.Type)
	}
}
