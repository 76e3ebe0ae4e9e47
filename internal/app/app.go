package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"taskTrackerAPI/internal/config"
	"taskTrackerAPI/internal/handlers"
	"taskTrackerAPI/internal/logger"
	"taskTrackerAPI/internal/middleware"
	"taskTrackerAPI/internal/migrations"
	"taskTrackerAPI/internal/repository/task/inmemory"
	"taskTrackerAPI/internal/repository/task/mongo"
	"taskTrackerAPI/internal/repository/task/postgres"
	"taskTrackerAPI/internal/service"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const serviceName = "task-tracker-api"

type App struct {
	config     *config.Config
	server     *http.Server
	router     http.Handler
	repository service.TaskRepository // интерфейс!
	service    *service.TaskService
	shutdowns  map[string]gfshutdown.Operation // операции для graceful shutdown
}

func New(cfg *config.Config) *App {
	return &App{
		config:    cfg,
		shutdowns: make(map[string]gfshutdown.Operation),
	}
}

// Init поднимает логгер, хранилище, сервис и роутер
func (a *App) Init(ctx context.Context) (*App, error) {
	if err := logger.Init(a.config.Logging.Development); err != nil {
		return nil, fmt.Errorf("инициализация логгера: %w", err)
	}

	repo, err := a.newRepository(ctx)
	if err != nil {
		return nil, fmt.Errorf("инициализация хранилища: %w", err)
	}
	a.repository = repo
	a.shutdowns["repository"] = func(ctx context.Context) error {
		logger.Info("Repository: Закрытие соединения с хранилищем...")
		repo.Close()
		return nil
	}

	a.service = service.NewTaskService(repo)
	a.router = a.newRouter(handlers.NewTaskHandler(a.service))

	a.server = &http.Server{
		Addr:              a.config.GetServerAddr(),
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	a.shutdowns["http-server"] = func(ctx context.Context) error {
		logger.Info("HTTP: Остановка сервера...")
		return a.server.Shutdown(ctx)
	}

	logger.Info("Приложение инициализировано",
		zap.String("repository", a.config.Repository.Type),
		zap.String("addr", a.server.Addr))

	return a, nil
}

func (a *App) newRepository(ctx context.Context) (service.TaskRepository, error) {
	switch a.config.Repository.Type {
	case config.RepositoryMongo:
		return mongo.New(ctx, mongo.Options{
			URI:        a.config.Mongo.URI,
			Database:   a.config.Mongo.Database,
			Collection: a.config.Mongo.Collection,
			Timeout:    a.config.Mongo.ConnectTimeout,
		})
	case config.RepositoryPostgres:
		if a.config.Database.AutoMigrate {
			if err := migrations.Up(a.config.Database.URL); err != nil {
				return nil, fmt.Errorf("миграции: %w", err)
			}
		}
		return postgres.New(ctx, a.config.Database.URL, postgres.PoolOptions{
			MaxConns:        int32(a.config.Database.MaxConnections),
			MinConns:        int32(a.config.Database.MinConnections),
			MaxConnIdleTime: a.config.Database.IdleTimeout,
		})
	case config.RepositoryInMemory:
		logger.Warn("Repository: Используется хранилище в памяти, данные не сохраняются")
		return inmemory.NewTaskStorage(), nil
	default:
		return nil, fmt.Errorf("неизвестный тип хранилища %q", a.config.Repository.Type)
	}
}

func (a *App) newRouter(h *handlers.TaskHandler) http.Handler {
	var router http.Handler = h.NewRouter(
		middleware.CORS(a.config.CORS.AllowedOrigins),
		chimw.Recoverer,
		middleware.RequestID,
		middleware.Logging,
		chimw.Timeout(a.config.Server.RequestTimeout),
		middleware.RateLimit(a.config.RateLimit.RPM),
	)
	if a.config.Tracing.Enabled {
		router = middleware.Tracing(serviceName)(router)
	}
	return router
}

// Handler отдает собранный роутер, удобно для тестов
func (a *App) Handler() http.Handler {
	return a.router
}

// Run блокируется до остановки сервера. Штатная остановка не ошибка.
func (a *App) Run() error {
	logger.Info("HTTP: Сервер запущен", zap.String("addr", a.server.Addr))
	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("запуск сервера: %w", err)
	}
	return nil
}

// ShutdownOperations возвращает операции остановки для gfshutdown.
// Логгер сбрасывается последним снаружи, поэтому здесь его нет.
func (a *App) ShutdownOperations() map[string]gfshutdown.Operation {
	return a.shutdowns
}

// Shutdown останавливает все сразу, без ожидания сигнала
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error
	if op, ok := a.shutdowns["http-server"]; ok {
		errs = append(errs, op(ctx))
	}
	if op, ok := a.shutdowns["repository"]; ok {
		errs = append(errs, op(ctx))
	}
	logger.Sync()
	return errors.Join(errs...)
}
