package inmemory

import (
	"context"
	"sort"
	"sync"
	"taskTrackerAPI/internal/logger"
	"taskTrackerAPI/internal/models/task"
	repo "taskTrackerAPI/internal/repository"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TaskStorage struct {
	storage map[primitive.ObjectID]*task.Task
	mtx     *sync.RWMutex
	ids     []primitive.ObjectID
}

func NewTaskStorage() *TaskStorage {
	return &TaskStorage{
		storage: make(map[primitive.ObjectID]*task.Task),
		mtx:     &sync.RWMutex{},
		ids:     []primitive.ObjectID{},
	}
}

func (s *TaskStorage) HealthCheck(ctx context.Context) error {
	logger.Info("Repository: Соединение стабильно")
	return nil
}

func (s *TaskStorage) Close() {}

// Insert сохраняет копию задачи и проставляет ей новый id
func (s *TaskStorage) Insert(ctx context.Context, taskToCreate *task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	taskToCreate.ID = task.NewID()

	s.storage[taskToCreate.ID] = taskToCreate.Clone()
	s.ids = append(s.ids, taskToCreate.ID)
	return nil
}

func (s *TaskStorage) FindByID(ctx context.Context, id primitive.ObjectID) (*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	taskToGet, ok := s.storage[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return taskToGet.Clone(), nil
}

// Find возвращает задачи по фильтру, новые первыми
func (s *TaskStorage) Find(ctx context.Context, filter repo.Filter, page repo.Page) ([]*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	matched := s.matching(filter)

	res := []*task.Task{}
	for i := page.Skip; i < int64(len(matched)); i++ {
		if page.Limit > 0 && int64(len(res)) >= page.Limit {
			break
		}
		res = append(res, matched[i].Clone())
	}
	return res, nil
}

func (s *TaskStorage) Count(ctx context.Context, filter repo.Filter) (int64, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	return int64(len(s.matching(filter))), nil
}

func (s *TaskStorage) FindAll(ctx context.Context) ([]*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := make([]*task.Task, 0, len(s.ids))
	for _, id := range s.ids {
		res = append(res, s.storage[id].Clone())
	}
	return res, nil
}

// Update применяет изменения, возвращает число найденных записей
func (s *TaskStorage) Update(ctx context.Context, id primitive.ObjectID, upd task.Update) (int64, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	existing, ok := s.storage[id]
	if !ok {
		return 0, nil
	}
	s.storage[id] = upd.Apply(existing)
	return 1, nil
}

func (s *TaskStorage) Archive(ctx context.Context, id primitive.ObjectID, at time.Time) (int64, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	existing, ok := s.storage[id]
	if !ok {
		return 0, nil
	}
	archived := existing.Clone()
	archived.Archived = true
	archived.UpdatedAt = at
	s.storage[id] = archived
	return 1, nil
}

// полное удаление
func (s *TaskStorage) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.storage[id]; !ok {
		return 0, nil
	}

	delete(s.storage, id)
	for ind, val := range s.ids {
		if val == id {
			s.ids = append(s.ids[:ind], s.ids[ind+1:]...)
			break
		}
	}
	return 1, nil
}

// matching вызывается под блокировкой
func (s *TaskStorage) matching(filter repo.Filter) []*task.Task {
	res := []*task.Task{}
	// обход с конца: при равном created_at последняя вставленная идёт первой
	for i := len(s.ids) - 1; i >= 0; i-- {
		t := s.storage[s.ids[i]]
		if filter.Matches(t) {
			res = append(res, t)
		}
	}

	sort.SliceStable(res, func(i, j int) bool {
		return res[i].CreatedAt.After(res[j].CreatedAt)
	})
	return res
}
