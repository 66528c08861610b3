package po

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"video-ingest-service/ddd/domain/vo"
)

// BaseModel 公共字段
type BaseModel struct {
	Id        uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time `gorm:"column:created_at;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

// Renditions 转码产物，以 JSON 存储
type Renditions []vo.Rendition

// Value 实现driver.Valuer接口
func (r Renditions) Value() (driver.Value, error) {
	if r == nil {
		return "[]", nil
	}
	b, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan 实现sql.Scanner接口
func (r *Renditions) Scan(value interface{}) error {
	if value == nil {
		*r = Renditions{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, r)
	case string:
		return json.Unmarshal([]byte(v), r)
	default:
		return fmt.Errorf("cannot scan %T into Renditions", value)
	}
}
