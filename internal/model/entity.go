package model

import (
	"time"
)

// User 사용자
type User struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Email      string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Nickname   string    `gorm:"type:varchar(100);not null" json:"nickname"`
	ProfileImg *string   `gorm:"type:text" json:"profile_img,omitempty"`
	Provider   *string   `gorm:"type:varchar(50)" json:"provider,omitempty"`
	ProviderID *string   `gorm:"type:varchar(255)" json:"provider_id,omitempty"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`

	// Relations
	Workspaces []WorkspaceMember `gorm:"foreignKey:UserID" json:"workspaces,omitempty"`
}

func (User) TableName() string {
	return "users"
}

// Workspace 여행 워크스페이스 (하나의 공동 여행 계획)
type Workspace struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"type:varchar(100);not null" json:"name"`
	Region    *string   `gorm:"type:varchar(100)" json:"region,omitempty"`
	OwnerID   int64     `gorm:"not null" json:"owner_id"`
	StartDate time.Time `gorm:"not null" json:"start_date"`
	EndDate   time.Time `gorm:"not null" json:"end_date"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	// Relations
	Owner    User              `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Members  []WorkspaceMember `gorm:"foreignKey:WorkspaceID" json:"members,omitempty"`
	PlanDays []PlanDay         `gorm:"foreignKey:WorkspaceID" json:"plan_days,omitempty"`
	Pois     []Poi             `gorm:"foreignKey:WorkspaceID" json:"pois,omitempty"`
}

func (Workspace) TableName() string {
	return "workspaces"
}

// WorkspaceMember 워크스페이스 멤버
type WorkspaceMember struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	WorkspaceID int64     `gorm:"not null;index" json:"workspace_id"`
	UserID      int64     `gorm:"not null" json:"user_id"`
	Status      string    `gorm:"type:varchar(20);default:'ACTIVE'" json:"status"` // PENDING, ACTIVE
	JoinedAt    time.Time `gorm:"autoCreateTime" json:"joined_at"`

	// Relations
	Workspace Workspace `gorm:"foreignKey:WorkspaceID" json:"workspace,omitempty"`
	User      User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (WorkspaceMember) TableName() string {
	return "workspace_members"
}

// PlanDay 여행 일차 (워크스페이스 기간에서 하루)
type PlanDay struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	WorkspaceID int64     `gorm:"not null;index" json:"workspace_id"`
	Date        time.Time `gorm:"not null" json:"date"`
	DayIndex    int       `gorm:"not null" json:"day_index"` // 0부터 시작
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`

	// Relations
	Workspace Workspace `gorm:"foreignKey:WorkspaceID" json:"workspace,omitempty"`
	Pois      []Poi     `gorm:"foreignKey:PlanDayID" json:"pois,omitempty"`
}

func (PlanDay) TableName() string {
	return "plan_days"
}

// Poi 워크스페이스에 핀된 장소. Sequence는 파티션(보관함 또는 일차) 내 위치이며
// 변경 시 항상 0..n-1로 연속되게 다시 매겨진다.
type Poi struct {
	ID           string    `gorm:"type:uuid;primaryKey" json:"id"`
	WorkspaceID  int64     `gorm:"not null;index" json:"workspace_id"`
	CreatedBy    int64     `gorm:"not null" json:"created_by"`
	Latitude     float64   `gorm:"not null" json:"latitude"`
	Longitude    float64   `gorm:"not null" json:"longitude"`
	PlaceName    *string   `gorm:"type:varchar(255)" json:"place_name,omitempty"`
	Address      *string   `gorm:"type:varchar(500)" json:"address,omitempty"`
	CategoryName *string   `gorm:"type:varchar(100)" json:"category_name,omitempty"`
	Status       string    `gorm:"type:varchar(20);not null;default:'MARKED'" json:"status"` // MARKED, SCHEDULED
	PlanDayID    *int64    `gorm:"index" json:"plan_day_id,omitempty"`
	Sequence     int       `gorm:"not null;default:0" json:"sequence"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Relations
	Workspace Workspace `gorm:"foreignKey:WorkspaceID" json:"workspace,omitempty"`
	Creator   User      `gorm:"foreignKey:CreatedBy" json:"creator,omitempty"`
	PlanDay   *PlanDay  `gorm:"foreignKey:PlanDayID" json:"plan_day,omitempty"`
}

func (Poi) TableName() string {
	return "pois"
}
