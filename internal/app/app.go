package app

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/ybhrdwj/mittens-bot/internal/config"
	"github.com/ybhrdwj/mittens-bot/internal/db"
	"github.com/ybhrdwj/mittens-bot/internal/dialog"
	"github.com/ybhrdwj/mittens-bot/internal/metrics"
	"github.com/ybhrdwj/mittens-bot/internal/repository"
	"github.com/ybhrdwj/mittens-bot/internal/service"
)

type App struct {
	Cfg         *config.Config
	DB          *sqlx.DB
	GoalService *service.GoalService
	Dialogs     *dialog.Manager
	Metrics     *metrics.Collector
}

func New(cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %v", err)
	}

	// Run database migrations
	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %v", err)
	}

	// Repositories
	userRepository := repository.NewUserRepository(database)
	goalRepository := repository.NewGoalRepository(database)
	logRepository := repository.NewLogRepository(database)

	// Services
	goalService := service.NewGoalService(userRepository, goalRepository, logRepository)
	dialogs := dialog.NewManager(goalService)

	return &App{
		Cfg:         cfg,
		DB:          database,
		GoalService: goalService,
		Dialogs:     dialogs,
		Metrics:     metrics.NewCollector(),
	}, nil
}

func (a *App) Close() error {
	return db.Close(a.DB)
}
