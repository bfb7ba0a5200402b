package model

// Room 教室表，对应 rooms
type Room struct {
	ID       string `gorm:"type:varchar(64);primaryKey"              json:"id"`
	Name     string `gorm:"type:varchar(100);not null"               json:"name"`
	Capacity int    `gorm:"not null"                                 json:"capacity"`
	Kind     string `gorm:"type:varchar(20);not null;default:standard" json:"kind"` // standard | computer
	SoftDeleteModel
}

// TableName 指定表名
func (Room) TableName() string { return "rooms" }
