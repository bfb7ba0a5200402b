package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// ── PostgreSQL JSONB 字符串数组 ──

// StringArray 对应 JSONB 字符串数组（如 ["p1","p2"]），实现 GORM Scanner/Valuer 接口。
type StringArray []string

// Scan 将 JSONB 文本解析为 []string。
func (a *StringArray) Scan(src interface{}) error {
	if src == nil {
		*a = StringArray{}
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("StringArray.Scan: unsupported type %T", src)
	}
	arr := StringArray{}
	if err := json.Unmarshal(raw, &arr); err != nil {
		return fmt.Errorf("StringArray.Scan: %w", err)
	}
	*a = arr
	return nil
}

// Value 序列化为 JSONB 文本；nil 视为空数组。
func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(a))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// GormDataType 迁移与建表时使用 jsonb
func (StringArray) GormDataType() string { return "jsonb" }

// BaseModel 通用审计字段（所有参考数据模型嵌入）
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// SoftDeleteModel 支持软删除的审计字段
type SoftDeleteModel struct {
	BaseModel
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}
