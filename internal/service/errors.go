package service

import "errors"

var (
	// ErrNotFound is returned when a channel does not exist.
	ErrNotFound = errors.New("channel not found")
	// ErrDuplicateChannel is returned when a create or update would reuse
	// an already registered Telegram channel ID.
	ErrDuplicateChannel = errors.New("channel_id already exists")
)
