package task

type TaskOption func(*Task)

func WithDescription(description string) TaskOption {
	if description == "" {
		return nil
	}
	return func(task *Task) {
		task.Description = description
	}
}

func WithStatus(status Status) TaskOption {
	if status == "" {
		return nil
	}
	return func(task *Task) {
		task.Status = status
	}
}

// WithTags сохраняет теги уже нормализованными и без дубликатов
func WithTags(tags []string) TaskOption {
	if len(tags) == 0 {
		return nil
	}
	return func(task *Task) {
		task.Tags = NormalizeTags(tags)
	}
}
