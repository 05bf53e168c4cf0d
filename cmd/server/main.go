package main

//	@title			Auditflow API
//	@version		1.0
//	@description	Audit workflow backend: projects, working steps, task approval chains and client document requests.
//	@schemes		http https
//	@BasePath		/api/v1

//  Bearer at Member level
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Member Bearer token (e.g., "Bearer sk-af-xxxx")

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/auditflow-io/auditflow/internal/bootstrap"
	"github.com/auditflow-io/auditflow/internal/config"
	"github.com/auditflow-io/auditflow/internal/infra/cache"
	dbpkg "github.com/auditflow-io/auditflow/internal/infra/db"
	"github.com/auditflow-io/auditflow/internal/modules/handler"
	"github.com/auditflow-io/auditflow/internal/router"
	"github.com/auditflow-io/auditflow/internal/telemetry"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	// build dependency injection container
	inj := bootstrap.BuildContainer()

	cfg := do.MustInvoke[*config.Config](inj)
	log := do.MustInvoke[*zap.Logger](inj)
	db := do.MustInvoke[*gorm.DB](inj)
	rdb := do.MustInvoke[*redis.Client](inj)

	// Setup OpenTelemetry tracing (using configuration system)
	tp, err := telemetry.SetupTracing(cfg)
	if err != nil {
		log.Sugar().Warnw("failed to setup tracing, continuing without tracing", "err", err)
	} else if tp != nil {
		log.Sugar().Info("OpenTelemetry tracing enabled", "endpoint", cfg.Telemetry.OtlpEndpoint)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := telemetry.Shutdown(ctx); err != nil {
				log.Sugar().Errorw("failed to shutdown tracer", "err", err)
			}
		}()

		// Register GORM OpenTelemetry plugin after tracer provider is set
		if err := dbpkg.RegisterOpenTelemetryPlugin(db); err != nil {
			log.Sugar().Warnw("failed to register GORM OpenTelemetry plugin, continuing without database tracing", "err", err)
		} else {
			log.Sugar().Info("GORM OpenTelemetry plugin registered")
		}

		// Register Redis OpenTelemetry plugin after tracer provider is set
		if err := cache.RegisterOpenTelemetryPlugin(rdb); err != nil {
			log.Sugar().Warnw("failed to register Redis OpenTelemetry plugin, continuing without Redis tracing", "err", err)
		} else {
			log.Sugar().Info("Redis OpenTelemetry plugin registered")
		}
	}

	// init gin
	gin.SetMode(cfg.App.Env)

	// build handlers
	projectHandler := do.MustInvoke[*handler.ProjectHandler](inj)
	taskHandler := do.MustInvoke[*handler.TaskHandler](inj)
	workingStepHandler := do.MustInvoke[*handler.WorkingStepHandler](inj)
	documentRequestHandler := do.MustInvoke[*handler.DocumentRequestHandler](inj)
	templateHandler := do.MustInvoke[*handler.TemplateHandler](inj)
	memberHandler := do.MustInvoke[*handler.MemberHandler](inj)

	engine := router.NewRouter(router.RouterDeps{
		Config:                 cfg,
		DB:                     db,
		Redis:                  rdb,
		Log:                    log,
		ProjectHandler:         projectHandler,
		TaskHandler:            taskHandler,
		WorkingStepHandler:     workingStepHandler,
		DocumentRequestHandler: documentRequestHandler,
		TemplateHandler:        templateHandler,
		MemberHandler:          memberHandler,
	})

	addr := fmt.Sprintf("%s:%d", cfg.App.Host, cfg.App.Port)
	srv := &http.Server{Addr: addr, Handler: engine}

	go func() {
		log.Sugar().Infow("starting http server", "addr", addr)
		log.Sugar().Infow("swagger url", "url", addr+"/swagger/index.html")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Sugar().Fatalw("listen error", "err", err)
		}
	}()

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Sugar().Errorw("server shutdown", "err", err)
	}
	log.Sugar().Info("server exited")
}
