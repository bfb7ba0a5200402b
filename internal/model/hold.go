package model

import "time"

// Hold 临时预留表，对应 holds
// 终态记录保留用于审计，重启时只加载 status = active 的记录
type Hold struct {
	ID            string     `gorm:"type:varchar(64);primaryKey" json:"id"`
	ProfessorID   string     `gorm:"type:varchar(64);not null"   json:"professor_id"`
	RoomID        string     `gorm:"type:varchar(64);not null"   json:"room_id"`
	CourseID      string     `gorm:"type:varchar(64);not null"   json:"course_id"`
	ProgrammeID   string     `gorm:"type:varchar(64);not null"   json:"programme_id"`
	GroupNo       int        `gorm:"not null"                    json:"group"`
	Slot          string     `gorm:"type:varchar(10);not null"   json:"slot"`
	Status        string     `gorm:"type:varchar(20);not null"   json:"status"`
	CreatedBy     string     `gorm:"type:varchar(64);not null"   json:"created_by"`
	AttributionID *string    `gorm:"type:varchar(64)"            json:"attribution_id,omitempty"`
	CreatedAt     time.Time  `gorm:"not null"                    json:"created_at"`
	ExpiresAt     time.Time  `gorm:"not null"                    json:"expires_at"`
	ClosedAt      *time.Time `json:"closed_at,omitempty"`
	UpdatedAt     time.Time  `gorm:"not null"                    json:"updated_at"`
}

// TableName 指定表名
func (Hold) TableName() string { return "holds" }

// Attribution 正式排课表，对应 attributions
type Attribution struct {
	ID          string    `gorm:"type:varchar(64);primaryKey" json:"id"`
	HoldID      string    `gorm:"type:varchar(64);not null"   json:"hold_id"`
	ProfessorID string    `gorm:"type:varchar(64);not null"   json:"professor_id"`
	RoomID      string    `gorm:"type:varchar(64);not null"   json:"room_id"`
	CourseID    string    `gorm:"type:varchar(64);not null"   json:"course_id"`
	ProgrammeID string    `gorm:"type:varchar(64);not null"   json:"programme_id"`
	GroupNo     int       `gorm:"not null"                    json:"group"`
	Slot        string    `gorm:"type:varchar(10);not null"   json:"slot"`
	CreatedBy   string    `gorm:"type:varchar(64);not null"   json:"created_by"`
	CreatedAt   time.Time `gorm:"not null"                    json:"created_at"`
}

// TableName 指定表名
func (Attribution) TableName() string { return "attributions" }
