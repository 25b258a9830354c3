package repository

import "errors"

var (
	ErrNotFound         = errors.New("entity not found")
	ErrUpdateFailed     = errors.New("update failed")
	ErrConflict         = errors.New("conflict: data was modified by another process")
	ErrConnectionFailed = errors.New("database connection failed")
)
