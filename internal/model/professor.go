package model

import "time"

// Professor 教师表，对应 professors
type Professor struct {
	ID    string `gorm:"type:varchar(64);primaryKey"  json:"id"`
	Name  string `gorm:"type:varchar(100);not null"   json:"name"`
	Email string `gorm:"type:varchar(255)"            json:"email,omitempty"`
	SoftDeleteModel
}

// TableName 指定表名
func (Professor) TableName() string { return "professors" }

// ProfessorAvailability 教师周可用性，对应 professor_availability
// Slots 存放可用格子键（"Mon/S1"），未列出的格子不可用
type ProfessorAvailability struct {
	ProfessorID string      `gorm:"type:varchar(64);primaryKey" json:"professor_id"`
	Slots       StringArray `gorm:"type:jsonb;not null"         json:"slots"`
	UpdatedAt   time.Time   `gorm:"not null"                    json:"updated_at"`
}

// TableName 指定表名
func (ProfessorAvailability) TableName() string { return "professor_availability" }
