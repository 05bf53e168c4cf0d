package bootstrap

import (
	"context"
	"time"

	"github.com/auditflow-io/auditflow/internal/config"
	"github.com/auditflow-io/auditflow/internal/infra/blob"
	"github.com/auditflow-io/auditflow/internal/infra/cache"
	"github.com/auditflow-io/auditflow/internal/infra/db"
	"github.com/auditflow-io/auditflow/internal/infra/logger"
	"github.com/auditflow-io/auditflow/internal/infra/queue"
	"github.com/auditflow-io/auditflow/internal/modules/handler"
	"github.com/auditflow-io/auditflow/internal/modules/model"
	"github.com/auditflow-io/auditflow/internal/modules/repo"
	"github.com/auditflow-io/auditflow/internal/modules/service"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func BuildContainer() *do.Injector {
	inj := do.New()

	// config
	do.Provide(inj, func(i *do.Injector) (*config.Config, error) {
		return config.Load()
	})

	// logger
	do.Provide(inj, func(i *do.Injector) (*zap.Logger, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return logger.New(cfg.Log.Level)
	})

	// DB
	do.Provide(inj, func(i *do.Injector) (*gorm.DB, error) {
		cfg := do.MustInvoke[*config.Config](i)
		d, err := db.New(cfg)
		if err != nil {
			return nil, err
		}
		// [optional] auto migrate
		if cfg.Database.AutoMigrate {
			_ = d.AutoMigrate(
				&model.Member{},
				&model.Client{},
				&model.ProjectTemplate{},
				&model.TemplateStep{},
				&model.TemplateTask{},
				&model.Project{},
				&model.WorkingStep{},
				&model.Task{},
				&model.TaskApproval{},
				&model.TaskAssignment{},
				&model.ProjectDocumentRequest{},
				&model.Document{},
				&model.ActivityLog{},
			)
		}
		return d, nil
	})

	// Redis
	do.Provide(inj, func(i *do.Injector) (*redis.Client, error) {
		cfg := do.MustInvoke[*config.Config](i)
		rdb := cache.New(cfg)
		return rdb, nil
	})

	// RabbitMQ Connection
	do.Provide(inj, func(i *do.Injector) (*amqp.Connection, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return amqp.Dial(cfg.RabbitMQ.URL)
	})

	// Workflow event publisher
	do.Provide(inj, func(i *do.Injector) (*queue.Publisher, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return queue.NewPublisher(
			do.MustInvoke[*amqp.Connection](i),
			cfg.RabbitMQ.ExchangeName,
			do.MustInvoke[*zap.Logger](i),
		)
	})

	// S3
	do.Provide(inj, func(i *do.Injector) (*blob.S3Deps, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return blob.NewS3(context.Background(), cfg)
	})

	// Dashboard cache
	do.Provide(inj, func(i *do.Injector) (*service.DashboardCache, error) {
		cfg := do.MustInvoke[*config.Config](i)
		ttl := 60 * time.Second
		if cfg.Redis.DashboardTTLSec > 0 {
			ttl = time.Duration(cfg.Redis.DashboardTTLSec) * time.Second
		}
		return service.NewDashboardCache(do.MustInvoke[*redis.Client](i), ttl), nil
	})

	// Repo
	do.Provide(inj, func(i *do.Injector) (repo.ProjectRepo, error) {
		return repo.NewProjectRepo(do.MustInvoke[*gorm.DB](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (repo.WorkingStepRepo, error) {
		return repo.NewWorkingStepRepo(do.MustInvoke[*gorm.DB](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (repo.TaskRepo, error) {
		return repo.NewTaskRepo(do.MustInvoke[*gorm.DB](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (repo.DocumentRequestRepo, error) {
		return repo.NewDocumentRequestRepo(do.MustInvoke[*gorm.DB](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (repo.TemplateRepo, error) {
		return repo.NewTemplateRepo(do.MustInvoke[*gorm.DB](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (repo.MemberRepo, error) {
		return repo.NewMemberRepo(do.MustInvoke[*gorm.DB](i)), nil
	})

	// Service
	do.Provide(inj, func(i *do.Injector) (service.Notifier, error) {
		return service.NewNotifier(
			do.MustInvoke[*queue.Publisher](i),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
	do.Provide(inj, func(i *do.Injector) (service.StepGateService, error) {
		return service.NewStepGateService(
			do.MustInvoke[repo.WorkingStepRepo](i),
			do.MustInvoke[repo.TaskRepo](i),
			do.MustInvoke[repo.ProjectRepo](i),
			do.MustInvoke[service.Notifier](i),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
	do.Provide(inj, func(i *do.Injector) (service.WorkflowService, error) {
		return service.NewWorkflowService(
			do.MustInvoke[repo.TaskRepo](i),
			do.MustInvoke[repo.MemberRepo](i),
			do.MustInvoke[repo.ProjectRepo](i),
			do.MustInvoke[service.StepGateService](i),
			do.MustInvoke[service.Notifier](i),
			do.MustInvoke[*service.DashboardCache](i),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
	do.Provide(inj, func(i *do.Injector) (service.ProjectService, error) {
		return service.NewProjectService(
			do.MustInvoke[repo.ProjectRepo](i),
			do.MustInvoke[repo.WorkingStepRepo](i),
			do.MustInvoke[repo.TemplateRepo](i),
			do.MustInvoke[*service.DashboardCache](i),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
	do.Provide(inj, func(i *do.Injector) (service.DocumentRequestService, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return service.NewDocumentRequestService(
			do.MustInvoke[repo.DocumentRequestRepo](i),
			do.MustInvoke[repo.ProjectRepo](i),
			do.MustInvoke[*blob.S3Deps](i),
			time.Duration(cfg.S3.PresignExpireSec)*time.Second,
			do.MustInvoke[service.Notifier](i),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
	do.Provide(inj, func(i *do.Injector) (service.TemplateService, error) {
		return service.NewTemplateService(do.MustInvoke[repo.TemplateRepo](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (service.MemberService, error) {
		return service.NewMemberService(
			do.MustInvoke[repo.MemberRepo](i),
			do.MustInvoke[*config.Config](i),
		), nil
	})

	// Handler
	do.Provide(inj, func(i *do.Injector) (*handler.ProjectHandler, error) {
		return handler.NewProjectHandler(do.MustInvoke[service.ProjectService](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (*handler.TaskHandler, error) {
		return handler.NewTaskHandler(
			do.MustInvoke[service.WorkflowService](i),
			do.MustInvoke[*blob.S3Deps](i),
		), nil
	})
	do.Provide(inj, func(i *do.Injector) (*handler.WorkingStepHandler, error) {
		return handler.NewWorkingStepHandler(do.MustInvoke[service.StepGateService](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (*handler.DocumentRequestHandler, error) {
		return handler.NewDocumentRequestHandler(do.MustInvoke[service.DocumentRequestService](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (*handler.TemplateHandler, error) {
		return handler.NewTemplateHandler(do.MustInvoke[service.TemplateService](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (*handler.MemberHandler, error) {
		return handler.NewMemberHandler(do.MustInvoke[service.MemberService](i)), nil
	})

	return inj
}
