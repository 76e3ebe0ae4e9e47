package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"taskTrackerAPI/internal/logger"
	"taskTrackerAPI/internal/models/task"
	repo "taskTrackerAPI/internal/repository"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const slowQuery = 100 * time.Millisecond

const columns = `id, title, description, status, tags, archived, created_at, updated_at`

type Storage struct {
	pool *pgxpool.Pool
}

// PoolOptions настройки пула соединений, нулевые значения оставляют умолчания
type PoolOptions struct {
	MaxConns        int32
	MinConns        int32
	MaxConnIdleTime time.Duration
}

func DefaultPoolOptions() PoolOptions {
	return PoolOptions{
		MaxConns:        10,
		MinConns:        2,
		MaxConnIdleTime: time.Minute * 5,
	}
}

func New(ctx context.Context, connString string, opts PoolOptions) (*Storage, error) {
	if connString == "" {
		return nil, fmt.Errorf("пустая строка подключения PostgreSQL")
	}

	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		logger.Error("Repository: Ошибка загрузки конфига", err)
		return nil, fmt.Errorf("загрузка конфига: %w", err)
	}

	if opts.MaxConns > 0 {
		config.MaxConns = opts.MaxConns
	}
	if opts.MinConns > 0 {
		config.MinConns = opts.MinConns
	}
	if opts.MaxConnIdleTime > 0 {
		config.MaxConnIdleTime = opts.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		logger.Error("Repository: Ошибка создания пула", err)
		return nil, fmt.Errorf("создание пула: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		pool.Close()
		return nil, fmt.Errorf("проверка соединения ping: %w", err)
	}

	logger.Info("Repository: Успешное создание подключения к PostgreSQL")
	return &Storage{pool: pool}, nil
}

func (s *Storage) Close() {
	if s.pool == nil {
		return
	}
	s.pool.Close()
	logger.Info("Repository: Закрытие всех соединений PostgreSQL")
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return fmt.Errorf("проверка соединения ping: %w", err)
	}
	return nil
}

// Truncate очищает таблицу, используется в тестах
func (s *Storage) Truncate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM tasks`)
	return err
}

func (s *Storage) Insert(ctx context.Context, taskToCreate *task.Task) error {
	start := time.Now()

	id := task.NewID()
	tags := taskToCreate.Tags
	if tags == nil {
		tags = []string{}
	}

	query := `INSERT INTO tasks
				(id, title, description, status, tags, archived, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := s.pool.Exec(ctx, query,
		id.Hex(),
		taskToCreate.Title,
		taskToCreate.Description,
		string(taskToCreate.Status),
		tags,
		taskToCreate.Archived,
		taskToCreate.CreatedAt,
		taskToCreate.UpdatedAt,
	)
	if err != nil {
		logger.Error("Repository: Не удалось добавить задачу", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("добавление задачи: %w", err)
	}

	taskToCreate.ID = id
	warnIfSlow(start, slowQuery)
	return nil
}

func (s *Storage) FindByID(ctx context.Context, id primitive.ObjectID) (*task.Task, error) {
	start := time.Now()

	query := `SELECT ` + columns + ` FROM tasks WHERE id = $1`

	t, err := scanTask(s.pool.QueryRow(ctx, query, id.Hex()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить задачу", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задачи: %w", err)
	}

	warnIfSlow(start, slowQuery)
	return t, nil
}

func (s *Storage) Find(ctx context.Context, filter repo.Filter, page repo.Page) ([]*task.Task, error) {
	start := time.Now()

	where, args := toWhere(filter)
	args = append(args, page.Skip)
	query := fmt.Sprintf(`SELECT %s FROM tasks%s ORDER BY created_at DESC, id DESC OFFSET $%d`, columns, where, len(args))
	if page.Limit > 0 {
		args = append(args, page.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}

	tasks, err := s.query(ctx, query, args...)
	if err != nil {
		logger.Error("Repository: Не удалось получить задачи", err, zap.Duration("ms", time.Since(start)))
		return nil, err
	}

	warnIfSlow(start, slowQuery+time.Millisecond*time.Duration(len(tasks)))
	return tasks, nil
}

func (s *Storage) Count(ctx context.Context, filter repo.Filter) (int64, error) {
	where, args := toWhere(filter)

	var count int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tasks`+where, args...).Scan(&count); err != nil {
		logger.Error("Repository: Не удалось посчитать задачи", err)
		return 0, fmt.Errorf("подсчёт задач: %w", err)
	}
	return count, nil
}

func (s *Storage) FindAll(ctx context.Context) ([]*task.Task, error) {
	start := time.Now()

	tasks, err := s.query(ctx, `SELECT `+columns+` FROM tasks`)
	if err != nil {
		logger.Error("Repository: Не удалось получить все задачи", err, zap.Duration("ms", time.Since(start)))
		return nil, err
	}

	warnIfSlow(start, slowQuery+time.Millisecond*time.Duration(len(tasks)))
	return tasks, nil
}

// Update меняет только переданные поля, возвращает число найденных строк
func (s *Storage) Update(ctx context.Context, id primitive.ObjectID, upd task.Update) (int64, error) {
	start := time.Now()

	sets := []string{"updated_at = $1"}
	args := []any{upd.UpdatedAt}
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if upd.Title != nil {
		add("title", *upd.Title)
	}
	if upd.Description != nil {
		add("description", *upd.Description)
	}
	if upd.Status != nil {
		add("status", string(*upd.Status))
	}
	if upd.Tags != nil {
		tags := *upd.Tags
		if tags == nil {
			tags = []string{}
		}
		add("tags", tags)
	}

	args = append(args, id.Hex())
	query := fmt.Sprintf(`UPDATE tasks SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(args))

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		logger.Error("Repository: Не удалось обновить задачу", err, zap.Duration("ms", time.Since(start)))
		return 0, fmt.Errorf("обновление задачи: %w", err)
	}

	warnIfSlow(start, slowQuery)
	return tag.RowsAffected(), nil
}

func (s *Storage) Archive(ctx context.Context, id primitive.ObjectID, at time.Time) (int64, error) {
	start := time.Now()

	query := `UPDATE tasks
				SET archived = TRUE,
					updated_at = $1
				WHERE id = $2`

	tag, err := s.pool.Exec(ctx, query, at, id.Hex())
	if err != nil {
		logger.Error("Repository: Не удалось архивировать задачу", err, zap.Duration("ms", time.Since(start)))
		return 0, fmt.Errorf("архивация задачи: %w", err)
	}

	warnIfSlow(start, slowQuery)
	return tag.RowsAffected(), nil
}

// полное удаление из БД
func (s *Storage) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	start := time.Now()

	tag, err := s.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id.Hex())
	if err != nil {
		logger.Error("Repository: Полное удаление задачи", err, zap.Duration("ms", time.Since(start)))
		return 0, fmt.Errorf("полное удаление: %w", err)
	}

	warnIfSlow(start, slowQuery)
	return tag.RowsAffected(), nil
}

func (s *Storage) query(ctx context.Context, query string, args ...any) ([]*task.Task, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("получение задач: %w", err)
	}
	defer rows.Close()

	tasks := []*task.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			logger.Warn("Repository: Ошибка сканирования задачи", zap.Error(err))
			continue
		}
		tasks = append(tasks, t)
	}

	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}
	return tasks, nil
}

func scanTask(row pgx.Row) (*task.Task, error) {
	var (
		id     string
		status string
		t      = &task.Task{}
	)

	err := row.Scan(
		&id,
		&t.Title,
		&t.Description,
		&status,
		&t.Tags,
		&t.Archived,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return nil, fmt.Errorf("некорректный id %q: %w", id, err)
	}

	t.ID = oid
	t.Status = task.Status(status)
	if t.Tags == nil {
		t.Tags = []string{}
	}
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	return t, nil
}

func toWhere(filter repo.Filter) (string, []any) {
	if filter.Status == "" {
		return "", nil
	}
	return ` WHERE status = $1`, []any{string(filter.Status)}
}

func warnIfSlow(start time.Time, limit time.Duration) {
	if time.Since(start) > limit {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}
}
