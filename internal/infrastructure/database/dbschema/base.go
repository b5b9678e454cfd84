package dbschema

import "time"

// BaseModel carries the columns every table shares. Rows are hard deleted.
type BaseModel struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}
