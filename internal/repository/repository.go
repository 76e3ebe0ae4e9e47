package repository

import (
	"errors"

	"taskTrackerAPI/internal/models/task"
)

var ErrNotFound = errors.New("запись не найдена")

// Filter - условия выборки. Пустой Status означает "любой".
type Filter struct {
	Status task.Status
}

// Page - параметры skip/limit. Limit == 0 означает без ограничения.
type Page struct {
	Skip  int64
	Limit int64
}

// Matches проверяет задачу на соответствие фильтру
func (f Filter) Matches(t *task.Task) bool {
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	return true
}
