package mongo

import (
	"context"
	"errors"
	"fmt"
	"taskTrackerAPI/internal/logger"
	"taskTrackerAPI/internal/models/task"
	repo "taskTrackerAPI/internal/repository"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
	"go.uber.org/zap"
)

const (
	DefaultDatabase   = "task_tracker"
	DefaultCollection = "tasks"
)

const slowQuery = 100 * time.Millisecond

type Storage struct {
	client     *mongo.Client
	collection *mongo.Collection
}

type Options struct {
	URI        string
	Database   string
	Collection string
	Timeout    time.Duration
}

func New(ctx context.Context, opts Options) (*Storage, error) {
	if opts.URI == "" {
		return nil, fmt.Errorf("пустая строка подключения MongoDB")
	}

	clientOpts := options.Client().ApplyURI(opts.URI)
	if opts.Timeout > 0 {
		clientOpts.SetServerSelectionTimeout(opts.Timeout)
	}

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		logger.Error("Repository: Ошибка подключения к MongoDB", err)
		return nil, fmt.Errorf("подключение к MongoDB: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("проверка соединения ping: %w", err)
	}

	database := opts.Database
	if database == "" {
		database = databaseFromURI(opts.URI)
	}
	collection := opts.Collection
	if collection == "" {
		collection = DefaultCollection
	}

	logger.Info("Repository: Успешное подключение к MongoDB",
		zap.String("database", database),
		zap.String("collection", collection))

	return &Storage{
		client:     client,
		collection: client.Database(database).Collection(collection),
	}, nil
}

func (s *Storage) Close() {
	if s.client == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.client.Disconnect(ctx); err != nil {
		logger.Error("Repository: Ошибка отключения от MongoDB", err)
		return
	}
	logger.Info("Repository: Закрытие соединения с MongoDB")
}

// Drop удаляет коллекцию целиком, используется в тестах
func (s *Storage) Drop(ctx context.Context) error {
	return s.collection.Drop(ctx)
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return fmt.Errorf("проверка соединения ping: %w", err)
	}
	return nil
}

func (s *Storage) Insert(ctx context.Context, taskToCreate *task.Task) error {
	start := time.Now()

	res, err := s.collection.InsertOne(ctx, taskToCreate)
	if err != nil {
		logger.Error("Repository: Не удалось добавить задачу", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("добавление задачи: %w", err)
	}

	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		taskToCreate.ID = oid
	}

	warnIfSlow(start, slowQuery)
	return nil
}

func (s *Storage) FindByID(ctx context.Context, id primitive.ObjectID) (*task.Task, error) {
	start := time.Now()

	result := &task.Task{}
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(result)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить задачу", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задачи: %w", err)
	}

	warnIfSlow(start, slowQuery)
	return normalize(result), nil
}

func (s *Storage) Find(ctx context.Context, filter repo.Filter, page repo.Page) ([]*task.Task, error) {
	start := time.Now()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(page.Skip)
	if page.Limit > 0 {
		opts.SetLimit(page.Limit)
	}

	tasks, err := s.find(ctx, toQuery(filter), opts)
	if err != nil {
		logger.Error("Repository: Не удалось получить задачи", err, zap.Duration("ms", time.Since(start)))
		return nil, err
	}

	warnIfSlow(start, slowQuery+time.Millisecond*time.Duration(len(tasks)))
	return tasks, nil
}

func (s *Storage) Count(ctx context.Context, filter repo.Filter) (int64, error) {
	count, err := s.collection.CountDocuments(ctx, toQuery(filter))
	if err != nil {
		logger.Error("Repository: Не удалось посчитать задачи", err)
		return 0, fmt.Errorf("подсчёт задач: %w", err)
	}
	return count, nil
}

func (s *Storage) FindAll(ctx context.Context) ([]*task.Task, error) {
	start := time.Now()

	tasks, err := s.find(ctx, bson.M{}, options.Find())
	if err != nil {
		logger.Error("Repository: Не удалось получить все задачи", err, zap.Duration("ms", time.Since(start)))
		return nil, err
	}

	warnIfSlow(start, slowQuery+time.Millisecond*time.Duration(len(tasks)))
	return tasks, nil
}

func (s *Storage) Update(ctx context.Context, id primitive.ObjectID, upd task.Update) (int64, error) {
	return s.set(ctx, id, bson.M(upd.Fields()))
}

func (s *Storage) Archive(ctx context.Context, id primitive.ObjectID, at time.Time) (int64, error) {
	return s.set(ctx, id, bson.M{task.FieldArchived: true, task.FieldUpdatedAt: at})
}

func (s *Storage) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	start := time.Now()

	res, err := s.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		logger.Error("Repository: Полное удаление задачи", err, zap.Duration("ms", time.Since(start)))
		return 0, fmt.Errorf("полное удаление: %w", err)
	}

	warnIfSlow(start, slowQuery)
	return res.DeletedCount, nil
}

func (s *Storage) set(ctx context.Context, id primitive.ObjectID, fields bson.M) (int64, error) {
	start := time.Now()

	res, err := s.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		logger.Error("Repository: Не удалось обновить задачу", err, zap.Duration("ms", time.Since(start)))
		return 0, fmt.Errorf("обновление задачи: %w", err)
	}

	warnIfSlow(start, slowQuery)
	return res.MatchedCount, nil
}

func (s *Storage) find(ctx context.Context, query bson.M, opts *options.FindOptions) ([]*task.Task, error) {
	cursor, err := s.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("получение задач: %w", err)
	}
	defer cursor.Close(ctx)

	tasks := []*task.Task{}
	for cursor.Next(ctx) {
		t := &task.Task{}
		if err := cursor.Decode(t); err != nil {
			logger.Warn("Repository: Ошибка декодирования задачи", zap.Error(err))
			continue
		}
		tasks = append(tasks, normalize(t))
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("итерация по курсору: %w", err)
	}
	return tasks, nil
}

func toQuery(filter repo.Filter) bson.M {
	query := bson.M{}
	if filter.Status != "" {
		query[task.FieldStatus] = filter.Status
	}
	return query
}

// normalize приводит документ к виду, который отдаёт остальное приложение
func normalize(t *task.Task) *task.Task {
	if t.Tags == nil {
		t.Tags = []string{}
	}
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	return t
}

func warnIfSlow(start time.Time, limit time.Duration) {
	if time.Since(start) > limit {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}
}

// databaseFromURI берёт имя базы из пути URI
func databaseFromURI(uri string) string {
	cs, err := connstring.ParseAndValidate(uri)
	if err != nil || cs.Database == "" {
		return DefaultDatabase
	}
	return cs.Database
}
