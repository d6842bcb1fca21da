package protocol

// PoiStatus POI 라이프사이클 상태
type PoiStatus string

const (
	// StatusMarked 보관함(풀)에 담긴 상태
	StatusMarked PoiStatus = "MARKED"
	// StatusScheduled 특정 일차에 배정된 상태
	StatusScheduled PoiStatus = "SCHEDULED"
	// StatusUnmarked 삭제된 상태 (스토어에서 즉시 제거됨)
	StatusUnmarked PoiStatus = "UNMARKED"
)

func (s PoiStatus) String() string {
	return string(s)
}

// Poi 워크스페이스에 핀된 장소 하나의 와이어 레코드.
// 서버 허브와 클라이언트 코어가 공유하는 표현이다.
type Poi struct {
	ID           string    `json:"id"`
	WorkspaceID  int64     `json:"workspaceId"`
	CreatedBy    int64     `json:"createdBy"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	PlaceName    string    `json:"placeName,omitempty"`
	Address      string    `json:"address,omitempty"`
	CategoryName string    `json:"categoryName,omitempty"`
	Status       PoiStatus `json:"status"`
	PlanDayID    *int64    `json:"planDayId,omitempty"`
	Sequence     int       `json:"sequence"`
	IsPersisted  bool      `json:"isPersisted"`
}

// Partition returns the partition that currently owns this POI.
func (p Poi) Partition() PartitionKey {
	if p.Status == StatusScheduled && p.PlanDayID != nil {
		return DayKey(*p.PlanDayID)
	}
	return PoolKey()
}

// RouteSegment 하루 일정 내 인접한 두 POI 사이의 이동 구간.
type RouteSegment struct {
	FromPoiID string  `json:"fromPoiId"`
	ToPoiID   string  `json:"toPoiId"`
	Duration  float64 `json:"duration"` // seconds
	Distance  float64 `json:"distance"` // meters
}
