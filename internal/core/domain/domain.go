package domain

import "time"

// Item is the example CRUD entity backed by the items table.
type Item struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Description *string    `json:"description"`
	Price       *float64   `json:"price"`
	IsActive    bool       `json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"`
}

// ItemCreate carries validated input for creating an item.
type ItemCreate struct {
	Name        string   `json:"name" validate:"required,min=1,max=255"`
	Description *string  `json:"description" validate:"omitempty,max=5000"`
	Price       *float64 `json:"price" validate:"omitempty,gte=0,lte=999999.99"`
	IsActive    *bool    `json:"is_active"`
}

// ItemUpdate carries validated input for a partial update. Nil fields are
// left untouched.
type ItemUpdate struct {
	Name        *string  `json:"name" validate:"omitempty,min=1,max=255"`
	Description *string  `json:"description" validate:"omitempty,max=5000"`
	Price       *float64 `json:"price" validate:"omitempty,gte=0,lte=999999.99"`
	IsActive    *bool    `json:"is_active"`
}
