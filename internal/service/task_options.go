package service

import (
	"time"
)

const (
	DefaultLimit int64 = 100
	DefaultSkip  int64 = 0
)

// Option настраивает TaskService при создании
type Option func(*TaskService)

// WithClock подменяет источник времени для archive и операций с тегами
func WithClock(now func() time.Time) Option {
	return func(s *TaskService) {
		if now != nil {
			s.now = now
		}
	}
}

func WithDefaultLimit(limit int64) Option {
	return func(s *TaskService) {
		if limit > 0 {
			s.defaultLimit = limit
		}
	}
}
