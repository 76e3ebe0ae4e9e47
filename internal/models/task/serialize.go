package task

import "time"

// Serialized - представление задачи для транспорта: строковый id и ISO-8601 время
type Serialized struct {
	ID          string   `json:"_id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Status      string   `json:"status"`
	Tags        []string `json:"tags"`
	Archived    bool     `json:"archived,omitempty"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
}

// Serialize для nil возвращает nil
func Serialize(t *Task) *Serialized {
	if t == nil {
		return nil
	}

	tags := t.Tags
	if tags == nil {
		tags = []string{}
	}

	return &Serialized{
		ID:          t.ID.Hex(),
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		Tags:        tags,
		Archived:    t.Archived,
		CreatedAt:   formatTime(t.CreatedAt),
		UpdatedAt:   formatTime(t.UpdatedAt),
	}
}

func SerializeList(tasks []*Task) []*Serialized {
	res := make([]*Serialized, 0, len(tasks))
	for _, t := range tasks {
		res = append(res, Serialize(t))
	}
	return res
}

// formatTime: нулевое время не метка, отдается его строковая форма
func formatTime(t time.Time) string {
	if t.IsZero() {
		return t.String()
	}
	return t.UTC().Format(time.RFC3339Nano)
}
