package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	_ "github.com/auditflow-io/auditflow/docs"
	"github.com/auditflow-io/auditflow/internal/config"
	"github.com/auditflow-io/auditflow/internal/middleware"
	"github.com/auditflow-io/auditflow/internal/modules/handler"
	"github.com/auditflow-io/auditflow/internal/modules/serializer"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type RouterDeps struct {
	Config                 *config.Config
	DB                     *gorm.DB
	Redis                  *redis.Client
	Log                    *zap.Logger
	ProjectHandler         *handler.ProjectHandler
	TaskHandler            *handler.TaskHandler
	WorkingStepHandler     *handler.WorkingStepHandler
	DocumentRequestHandler *handler.DocumentRequestHandler
	TemplateHandler        *handler.TemplateHandler
	MemberHandler          *handler.MemberHandler
}

func NewRouter(d RouterDeps) *gin.Engine {
	// Initialize logger for serializer package
	serializer.SetLogger(d.Log)

	r := gin.New()
	r.Use(gin.Recovery())

	if d.Config.Telemetry.Enabled && d.Config.Telemetry.OtlpEndpoint != "" {
		r.Use(middleware.OtelTracing(d.Config.App.Name))
		r.Use(middleware.TraceID())
	}

	r.Use(middleware.ZapLogger(d.Log))

	// health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, serializer.Response{Msg: "ok"}) })

	// swagger
	r.GET("/swagger", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
	})
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/api/v1")
	{
		v1.Use(middleware.MemberAuth(d.Config, d.DB, d.Redis))

		// ping endpoint
		v1.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, serializer.Response{Msg: "pong"}) })

		project := v1.Group("/project")
		{
			project.GET("", d.ProjectHandler.ListProjects)
			project.POST("", d.ProjectHandler.CreateProject)
			project.GET("/:project_id", d.ProjectHandler.GetProject)
			project.GET("/:project_id/dashboard", d.ProjectHandler.Dashboard)
			project.GET("/:project_id/step", d.WorkingStepHandler.ListProjectSteps)
		}

		step := v1.Group("/step")
		{
			step.GET("/:step_id", d.WorkingStepHandler.GetStep)
			step.POST("/:step_id/unlock-check", d.WorkingStepHandler.UnlockCheck)
		}

		task := v1.Group("/task")
		{
			task.GET("/:task_id", d.TaskHandler.GetTask)
			task.POST("/:task_id/submit", d.TaskHandler.SubmitTask)
			task.POST("/:task_id/approve", d.TaskHandler.ApproveTask)
			task.POST("/:task_id/reject", d.TaskHandler.RejectTask)
			task.POST("/:task_id/client-complete", d.TaskHandler.ClientComplete)
			task.POST("/:task_id/document", d.TaskHandler.UploadDocument)
		}

		docRequest := v1.Group("/document-request")
		{
			docRequest.GET("", d.DocumentRequestHandler.ListDocumentRequests)
			docRequest.POST("", d.DocumentRequestHandler.CreateDocumentRequest)
			docRequest.POST("/:request_id/upload", d.DocumentRequestHandler.UploadDocument)
			docRequest.GET("/:request_id/download", d.DocumentRequestHandler.DownloadDocument)
			docRequest.POST("/:request_id/complete", d.DocumentRequestHandler.CompleteDocumentRequest)
		}

		template := v1.Group("/template")
		{
			template.GET("", d.TemplateHandler.ListTemplates)
			template.POST("", d.TemplateHandler.CreateTemplate)
			template.GET("/:template_id", d.TemplateHandler.GetTemplate)
			template.PUT("/:template_id", d.TemplateHandler.RenameTemplate)
		}

		member := v1.Group("/member")
		{
			member.POST("", d.MemberHandler.CreateMember)
		}
	}
	return r
}
