package task

import (
	"time"
)

// Payload - сырое тело запроса после декодирования JSON
type Payload map[string]any

const (
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldStatus      = "status"
	FieldTags        = "tags"
	FieldArchived    = "archived"
	FieldUpdatedAt   = "updated_at"
)

const (
	msgTitleRequired    = "Title is required"
	msgTitleType        = "Title must be a string"
	msgDescriptionType  = "Description must be a string"
	msgStatusEnum       = "Status must be one of: pending, in_progress, completed"
	msgTagsList         = "Tags must be a list"
	msgTagType          = "Tag must be a string"
	invalidTagMsgPrefix = "Invalid tag: "
)

// Has сообщает, передано ли поле вообще (даже со значением null)
func (p Payload) Has(key string) bool {
	_, ok := p[key]
	return ok
}

// String возвращает строковое значение поля. ok=false если поля нет, оно null или не строка.
func (p Payload) String(key string) (string, bool) {
	v, ok := p[key]
	if !ok || v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// List возвращает элементы поля-массива как есть
func (p Payload) List(key string) ([]any, bool) {
	switch v := p[key].(type) {
	case []any:
		return v, true
	case []string:
		res := make([]any, len(v))
		for i, s := range v {
			res[i] = s
		}
		return res, true
	default:
		return nil, false
	}
}

// Validate возвращает список ошибок валидации. Пустой список - данные корректны.
func Validate(data Payload) []string {
	errs := []string{}

	if v, ok := data[FieldTitle]; !ok || v == nil {
		errs = append(errs, msgTitleRequired)
	} else if title, isStr := v.(string); !isStr {
		errs = append(errs, msgTitleType)
	} else if title == "" {
		errs = append(errs, msgTitleRequired)
	}

	if v, ok := data[FieldDescription]; ok && v != nil {
		if _, isStr := v.(string); !isStr {
			errs = append(errs, msgDescriptionType)
		}
	}

	if v, ok := data[FieldStatus]; ok && v != nil {
		status, isStr := v.(string)
		if !isStr || (status != "" && !Status(status).Valid()) {
			errs = append(errs, msgStatusEnum)
		}
	}

	if v, ok := data[FieldTags]; ok && v != nil {
		tags, isList := data.List(FieldTags)
		if !isList {
			errs = append(errs, msgTagsList)
		}
		for _, raw := range tags {
			tag, isStr := raw.(string)
			if !isStr {
				errs = append(errs, invalidTagMsgPrefix+msgTagType)
				continue
			}
			if err := ValidateTag(tag); err != nil {
				errs = append(errs, invalidTagMsgPrefix+err.Error())
			}
		}
	}

	return errs
}

// StringList возвращает строковые элементы массива. Нестроковые элементы пропускаются.
func (p Payload) StringList(key string) ([]string, bool) {
	raw, ok := p.List(key)
	if !ok {
		return nil, false
	}
	res := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, isStr := v.(string); isStr {
			res = append(res, s)
		}
	}
	return res, true
}

// Update - разрешённые к изменению поля. nil означает "не трогать".
type Update struct {
	Title       *string
	Description *string
	Status      *Status
	Tags        *[]string
	UpdatedAt   time.Time
}

// UpdateFields оставляет только title, description, status и tags.
// id, created_at и любые другие поля молча отбрасываются.
func UpdateFields(data Payload) Update {
	upd := Update{UpdatedAt: Now()}

	if title, ok := data.String(FieldTitle); ok {
		upd.Title = &title
	}
	if description, ok := data.String(FieldDescription); ok {
		upd.Description = &description
	}
	if status, ok := data.String(FieldStatus); ok && status != "" {
		s := Status(status)
		upd.Status = &s
	}
	if tags, ok := data.StringList(FieldTags); ok {
		normalized := NormalizeTags(tags)
		upd.Tags = &normalized
	}

	return upd
}

// Fields отдаёт изменения в виде документа для $set
func (u Update) Fields() map[string]any {
	fields := map[string]any{FieldUpdatedAt: u.UpdatedAt}
	if u.Title != nil {
		fields[FieldTitle] = *u.Title
	}
	if u.Description != nil {
		fields[FieldDescription] = *u.Description
	}
	if u.Status != nil {
		fields[FieldStatus] = *u.Status
	}
	if u.Tags != nil {
		fields[FieldTags] = *u.Tags
	}
	return fields
}

// Apply возвращает копию задачи с применёнными изменениями
func (u Update) Apply(t *Task) *Task {
	res := t.Clone()
	if u.Title != nil {
		res.Title = *u.Title
	}
	if u.Description != nil {
		res.Description = *u.Description
	}
	if u.Status != nil {
		res.Status = *u.Status
	}
	if u.Tags != nil {
		res.Tags = append([]string{}, (*u.Tags)...)
	}
	res.UpdatedAt = u.UpdatedAt
	return res
}
