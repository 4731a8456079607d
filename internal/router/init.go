package router

import (
	app "github.com/moodhaven/moodhaven/internal/application"
	"github.com/moodhaven/moodhaven/internal/container"
	pginfra "github.com/moodhaven/moodhaven/internal/infrastructure/postgres"
	handlers "github.com/moodhaven/moodhaven/internal/interface/http"
	"github.com/moodhaven/moodhaven/internal/router/modules"
)

// InitModules builds the services from the container singletons and registers
// every feature module with the router registry. Called once at startup.
func InitModules(r *Registry) {
	cfg := container.GetConfig()

	recordRepo := pginfra.NewUserRecordRepository(container.GetPGPool())
	auditRepo := pginfra.NewAuditLogRepository(container.GetPGPool())

	accountSvc := &app.AccountService{
		Repo:      recordRepo,
		Audit:     auditRepo,
		JWT:       container.GetJWT(),
		GCS:       container.GetGCS(),
		GCSBucket: cfg.GCSBucket,
		Redis:     container.GetRedis(),
		Logger:    container.GetLogger(),
		Pub:       container.GetRabbitPub(),
		Cfg:       cfg,
	}

	wellbeingSvc := &app.WellbeingService{
		Repo:    recordRepo,
		Audit:   auditRepo,
		Redis:   container.GetRedis(),
		Logger:  container.GetLogger(),
		ES:      container.GetES(),
		ESIndex: cfg.ESMoodLogIndex,
		Pub:     container.GetRabbitPub(),
		Cfg:     cfg,
	}

	accountHandler := handlers.NewAccountHandler(accountSvc, container.GetLogger(), cfg.CookieDomain, cfg.CookieSecure)

	r.Add(modules.NewAccountModule(accountHandler, container.GetJWT()))
	r.Add(modules.NewWellbeingModule(
		handlers.NewEmotionHandler(wellbeingSvc, container.GetLogger()),
		handlers.NewTaskHandler(wellbeingSvc, container.GetLogger()),
		handlers.NewRewardHandler(wellbeingSvc, container.GetLogger()),
		handlers.NewLogHandler(wellbeingSvc, container.GetLogger()),
		container.GetJWT(),
	))
	if cfg.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule())
	}
}
