package task

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"sort"
	"strings"
)

const MaxTagLength = 50

var tagPattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

var (
	ErrEmptyTag   = errors.New("tag cannot be empty")
	ErrInvalidTag = errors.New("invalid tag")
)

const emptyTagMessage = "Tag cannot be empty"

// TagError описывает нарушение формата тега
type TagError struct {
	Message string
}

func (e *TagError) Error() string {
	return e.Message
}

func (e *TagError) Unwrap() error {
	return ErrInvalidTag
}

// ValidateTag проверяет тег до нормализации
func ValidateTag(tag string) error {
	if tag == "" {
		return &TagError{Message: emptyTagMessage}
	}

	if len(tag) > MaxTagLength {
		return &TagError{Message: fmt.Sprintf("Tag is too long (max %d characters)", MaxTagLength)}
	}

	if strings.ContainsAny(tag, " \t\n\r") || !tagPattern.MatchString(tag) {
		return &TagError{Message: "Tag contains invalid characters"}
	}

	return nil
}

func NormalizeTag(tag string) string {
	if tag == "" {
		return tag
	}
	return strings.ToLower(strings.TrimSpace(tag))
}

// NormalizeTags нормализует список и убирает дубликаты, сохраняя порядок
func NormalizeTags(tags []string) []string {
	res := make([]string, 0, len(tags))
	for _, tag := range tags {
		normalized := NormalizeTag(tag)
		if normalized == "" || slices.Contains(res, normalized) {
			continue
		}
		res = append(res, normalized)
	}
	return res
}

// AddTag возвращает копию задачи с добавленным тегом. Исходная задача не меняется.
func AddTag(t *Task, tag string) (*Task, error) {
	if tag == "" {
		return nil, ErrEmptyTag
	}

	if err := ValidateTag(tag); err != nil {
		return nil, err
	}
	normalized := NormalizeTag(tag)

	res := t.Clone()
	if !slices.Contains(res.Tags, normalized) {
		res.Tags = append(res.Tags, normalized)
	}
	return res, nil
}

// RemoveTag возвращает копию задачи без тега. Отсутствующий тег не ошибка.
func RemoveTag(t *Task, tag string) *Task {
	normalized := NormalizeTag(tag)

	res := t.Clone()
	res.Tags = slices.DeleteFunc(res.Tags, func(existing string) bool {
		return existing == normalized
	})
	return res
}

func HasTag(t *Task, tag string) bool {
	if t == nil {
		return false
	}
	return slices.Contains(t.Tags, NormalizeTag(tag))
}

func FilterByTag(tasks []*Task, tag string) []*Task {
	res := []*Task{}
	for _, t := range tasks {
		if HasTag(t, tag) {
			res = append(res, t)
		}
	}
	return res
}

func AllUniqueTags(tasks []*Task) []string {
	seen := make(map[string]struct{})
	for _, t := range tasks {
		if t == nil {
			continue
		}
		for _, tag := range t.Tags {
			seen[tag] = struct{}{}
		}
	}

	res := make([]string, 0, len(seen))
	for tag := range seen {
		res = append(res, tag)
	}
	sort.Strings(res)
	return res
}

func TagCounts(tasks []*Task) map[string]int {
	counts := make(map[string]int)
	for _, t := range tasks {
		if t == nil {
			continue
		}
		for _, tag := range t.Tags {
			counts[tag]++
		}
	}
	return counts
}
