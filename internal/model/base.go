package model

import "time"

// BaseModel carries the surrogate key and tenant scope shared by every core table.
type BaseModel struct {
	ID         int64     `db:"id" json:"id"`
	BusinessID string    `db:"business_id" json:"business_id"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}
