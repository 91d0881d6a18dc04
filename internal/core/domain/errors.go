package domain

import "errors"

var (
	ErrItemNotFound   = errors.New("item not found")
	ErrConnectionGone = errors.New("connection closed")
)
