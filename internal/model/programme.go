package model

// Programme 培养方案表，对应 programmes（如 L1-INFO 第 1 学期）
type Programme struct {
	ID         string `gorm:"type:varchar(64);primaryKey" json:"id"`
	Name       string `gorm:"type:varchar(100);not null"  json:"name"`
	Level      string `gorm:"type:varchar(20);not null"   json:"level"`
	Term       int    `gorm:"not null"                    json:"term"`
	GroupCount int    `gorm:"not null;default:1"          json:"group_count"`
	SoftDeleteModel
}

// TableName 指定表名
func (Programme) TableName() string { return "programmes" }

// CourseInstance 课程实例表，对应 course_instances（课程 × 培养方案 × 班组）
type CourseInstance struct {
	ID                 string      `gorm:"type:varchar(64);primaryKey"  json:"id"`
	Name               string      `gorm:"type:varchar(200);not null"   json:"name"`
	ProgrammeID        string      `gorm:"type:varchar(64);not null"    json:"programme_id"`
	GroupNo            int         `gorm:"not null;default:1"           json:"group"`
	DurationHours      int         `gorm:"not null;default:0"           json:"duration_hours"`
	RoomKind           string      `gorm:"type:varchar(20);not null"    json:"room_kind"`
	Headcount          int         `gorm:"not null;default:0"           json:"headcount"`
	EligibleProfessors StringArray `gorm:"type:jsonb;not null"          json:"eligible_professors"`
	SoftDeleteModel

	Programme *Programme `gorm:"foreignKey:ProgrammeID;references:ID" json:"programme,omitempty"`
}

// TableName 指定表名
func (CourseInstance) TableName() string { return "course_instances" }
