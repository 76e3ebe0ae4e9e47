package service

import (
	"context"
	"errors"
	"fmt"
	"taskTrackerAPI/internal/logger"
	"taskTrackerAPI/internal/models/task"
	"taskTrackerAPI/internal/repository"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// здесь происходит проверка ошибок бизнес-логики

const statusPlaceholderTitle = "placeholder"

type TaskService struct {
	repo         TaskRepository
	now          func() time.Time
	defaultLimit int64
}

func NewTaskService(repo TaskRepository, opts ...Option) *TaskService {
	s := &TaskService{
		repo:         repo,
		now:          task.Now,
		defaultLimit: DefaultLimit,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// ListQuery - параметры выборки. nil в Limit/Skip означает значение по умолчанию.
type ListQuery struct {
	Status string
	Tag    string
	Limit  *int64
	Skip   *int64
}

type ListResult struct {
	Tasks []*task.Task
	Total int64
	Limit int64
	Skip  int64
}

// Stats - заглушка статистики, total пока не считается
type Stats struct {
	X     int
	Total *int64
}

func (s *TaskService) HealthCheck(ctx context.Context) error {
	if err := s.repo.HealthCheck(ctx); err != nil {
		return fmt.Errorf("проверка здоровья сервиса: %w", err)
	}
	return nil
}

func (s *TaskService) CreateTask(ctx context.Context, data task.Payload) (*task.Task, error) {
	if len(data) == 0 {
		return nil, NewMissingField("body", "No data provided")
	}

	if errs := task.Validate(data); len(errs) > 0 {
		logger.Info("Service: Ошибка валидации задачи", zap.Strings("errors", errs))
		return nil, NewValidationError(errs)
	}

	title, _ := data.String(task.FieldTitle)
	description, _ := data.String(task.FieldDescription)
	status, _ := data.String(task.FieldStatus)
	tags, _ := data.StringList(task.FieldTags)

	newTask := task.New(title,
		task.WithDescription(description),
		task.WithStatus(task.Status(status)),
		task.WithTags(tags),
	)

	if err := s.repo.Insert(ctx, newTask); err != nil {
		return nil, fmt.Errorf("создание задачи: %w", err)
	}

	logger.Info("Service: Задача создана", zap.String("task_id", newTask.ID.Hex()))
	return newTask, nil
}

func (s *TaskService) ListTasks(ctx context.Context, q ListQuery) (ListResult, error) {
	limit, skip := s.defaultLimit, DefaultSkip
	if q.Limit != nil {
		limit = *q.Limit
	}
	if q.Skip != nil {
		skip = *q.Skip
	}

	var errs []string
	if limit < 0 {
		errs = append(errs, "Limit must be a non-negative integer")
	}
	if skip < 0 {
		errs = append(errs, "Skip must be a non-negative integer")
	}
	if len(errs) > 0 {
		return ListResult{}, NewValidationError(errs)
	}

	filter := repository.Filter{Status: task.Status(q.Status)}
	tasks, err := s.repo.Find(ctx, filter, repository.Page{Skip: skip, Limit: limit})
	if err != nil {
		return ListResult{}, fmt.Errorf("получение задач: %w", err)
	}

	var total int64
	if q.Tag != "" {
		// тег фильтруется уже после пагинации, total считается по странице
		tasks = task.FilterByTag(tasks, q.Tag)
		total = int64(len(tasks))
	} else {
		total, err = s.repo.Count(ctx, filter)
		if err != nil {
			return ListResult{}, fmt.Errorf("подсчёт задач: %w", err)
		}
	}

	return ListResult{
		Tasks: tasks,
		Total: total,
		Limit: limit,
		Skip:  skip,
	}, nil
}

func (s *TaskService) GetTask(ctx context.Context, id string) (*task.Task, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	return s.find(ctx, oid)
}

func (s *TaskService) UpdateTask(ctx context.Context, id string, data task.Payload) (*task.Task, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	if len(data) == 0 {
		return nil, NewMissingField("body", "No data provided")
	}

	if errs := validateUpdate(data); len(errs) > 0 {
		logger.Info("Service: Ошибка валидации обновления", zap.String("task_id", id), zap.Strings("errors", errs))
		return nil, NewValidationError(errs)
	}

	matched, err := s.repo.Update(ctx, oid, task.UpdateFields(data))
	if err != nil {
		return nil, fmt.Errorf("обновление задачи: %w", err)
	}
	if matched == 0 {
		logger.Info("Service: Задача не найдена", zap.String("target_id", id))
		return nil, NewNotFound(id)
	}

	return s.find(ctx, oid)
}

func (s *TaskService) DeleteTask(ctx context.Context, id string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}

	deleted, err := s.repo.Delete(ctx, oid)
	if err != nil {
		return fmt.Errorf("удаление задачи: %w", err)
	}
	if deleted == 0 {
		logger.Info("Service: Задача не найдена", zap.String("target_id", id))
		return NewNotFound(id)
	}

	logger.Info("Service: Задача удалена", zap.String("task_id", id))
	return nil
}

// BulkDelete сначала разбирает все id и только потом удаляет.
// Удаления идут последовательно, атомарности нет.
func (s *TaskService) BulkDelete(ctx context.Context, ids []string) (int64, error) {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := parseID(id)
		if err != nil {
			return 0, err
		}
		oids = append(oids, oid)
	}

	var count int64
	for _, oid := range oids {
		deleted, err := s.repo.Delete(ctx, oid)
		if err != nil {
			logger.Error("Service: Ошибка пакетного удаления", err, zap.Int64("deleted", count))
			return count, fmt.Errorf("пакетное удаление: %w", err)
		}
		count += deleted
	}

	logger.Info("Service: Пакетное удаление", zap.Int("requested", len(ids)), zap.Int64("deleted", count))
	return count, nil
}

func (s *TaskService) ArchiveTask(ctx context.Context, id string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}

	matched, err := s.repo.Archive(ctx, oid, s.now())
	if err != nil {
		return fmt.Errorf("архивация задачи: %w", err)
	}
	if matched == 0 {
		logger.Info("Service: Задача не найдена", zap.String("target_id", id))
		return NewNotFound(id)
	}

	logger.Info("Service: Задача архивирована", zap.String("task_id", id))
	return nil
}

func (s *TaskService) AddTag(ctx context.Context, id string, tag string) (*task.Task, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	current, err := s.findForTagging(ctx, oid, id)
	if err != nil {
		return nil, err
	}

	updated, err := task.AddTag(current, tag)
	if err != nil {
		if errors.Is(err, task.ErrEmptyTag) {
			return nil, NewEmptyTag("Tag cannot be empty")
		}
		return nil, NewInvalidTag(err.Error())
	}

	return s.saveTags(ctx, oid, id, updated.Tags)
}

func (s *TaskService) RemoveTag(ctx context.Context, id string, tag string) (*task.Task, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	current, err := s.findForTagging(ctx, oid, id)
	if err != nil {
		return nil, err
	}

	return s.saveTags(ctx, oid, id, task.RemoveTag(current, tag).Tags)
}

func (s *TaskService) ListTags(ctx context.Context) ([]string, error) {
	tasks, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, NewInternal(fmt.Errorf("получение всех задач: %w", err))
	}
	return task.AllUniqueTags(tasks), nil
}

func (s *TaskService) TagStats(ctx context.Context) (map[string]int, error) {
	tasks, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, NewInternal(fmt.Errorf("получение всех задач: %w", err))
	}
	return task.TagCounts(tasks), nil
}

func (s *TaskService) Stats(ctx context.Context) Stats {
	return Stats{X: 1, Total: nil}
}

func (s *TaskService) find(ctx context.Context, oid primitive.ObjectID) (*task.Task, error) {
	found, err := s.repo.FindByID(ctx, oid)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			logger.Info("Service: Задача не найдена", zap.String("target_id", oid.Hex()))
			return nil, NewNotFound(oid.Hex())
		}
		return nil, fmt.Errorf("получение задачи: %w", err)
	}
	return found, nil
}

// findForTagging как find, но ошибки хранилища отдаются как INTERNAL_ERROR
func (s *TaskService) findForTagging(ctx context.Context, oid primitive.ObjectID, id string) (*task.Task, error) {
	found, err := s.repo.FindByID(ctx, oid)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			logger.Info("Service: Задача не найдена", zap.String("target_id", id))
			return nil, NewNotFound(id)
		}
		return nil, NewInternal(fmt.Errorf("получение задачи: %w", err))
	}
	return found, nil
}

func (s *TaskService) saveTags(ctx context.Context, oid primitive.ObjectID, id string, tags []string) (*task.Task, error) {
	matched, err := s.repo.Update(ctx, oid, task.Update{Tags: &tags, UpdatedAt: s.now()})
	if err != nil {
		return nil, NewInternal(fmt.Errorf("сохранение тегов: %w", err))
	}
	if matched == 0 {
		return nil, NewNotFound(id)
	}

	logger.Info("Service: Теги обновлены", zap.String("task_id", id), zap.Strings("tags", tags))
	return s.findForTagging(ctx, oid, id)
}

// validateUpdate проверяет status и tags отдельно от title:
// title подставляется заглушкой, чтобы не требовать его в обновлении
func validateUpdate(data task.Payload) []string {
	if !data.Has(task.FieldStatus) && !data.Has(task.FieldTags) {
		return nil
	}

	synthetic := task.Payload{task.FieldTitle: statusPlaceholderTitle}
	if data.Has(task.FieldStatus) {
		synthetic[task.FieldStatus] = data[task.FieldStatus]
	}
	if data.Has(task.FieldTags) {
		synthetic[task.FieldTags] = data[task.FieldTags]
	}
	return task.Validate(synthetic)
}

func parseID(id string) (primitive.ObjectID, error) {
	oid, err := task.ParseID(id)
	if err != nil {
		logger.Info("Service: Некорректный id", zap.String("id", id))
		return primitive.NilObjectID, NewInvalidID(id)
	}
	return oid, nil
}
