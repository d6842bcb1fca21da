package model

// MemberStatus 멤버 상태
type MemberStatus string

const (
	MemberStatusPending MemberStatus = "PENDING"
	MemberStatusActive  MemberStatus = "ACTIVE"
)

// String 메서드
func (s MemberStatus) String() string {
	return string(s)
}

// PoiStatus DB에 저장되는 POI 상태. UNMARKED는 삭제이므로 저장되지 않는다.
type PoiStatus string

const (
	PoiStatusMarked    PoiStatus = "MARKED"
	PoiStatusScheduled PoiStatus = "SCHEDULED"
)

func (s PoiStatus) String() string {
	return string(s)
}
