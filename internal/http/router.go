package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/magix-backend/internal/http/handlers"
	httpMW "github.com/yungbote/magix-backend/internal/http/middleware"
	"github.com/yungbote/magix-backend/internal/observability"
	"github.com/yungbote/magix-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	ServiceName    string
	AllowedOrigins []string
	Metrics        *observability.Metrics
	AuthMiddleware *httpMW.AuthMiddleware

	ConversationHandler *httpH.ConversationHandler
	MessageHandler      *httpH.MessageHandler
	LLMHandler          *httpH.LLMHandler
	UserHandler         *httpH.UserHandler
	HealthHandler       *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.AllowedOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/ping", cfg.HealthHandler.Ping)
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		if cfg.Metrics != nil {
			r.GET("/metrics", cfg.HealthHandler.Metrics)
		}
	}

	// Token verification stays reachable without a bearer token.
	if cfg.UserHandler != nil {
		r.GET("/verify/token", cfg.UserHandler.VerifyToken)
	}

	api := r.Group("/")
	if cfg.AuthMiddleware != nil {
		api.Use(cfg.AuthMiddleware.Handle())
	}
	{
		// Conversations
		if cfg.ConversationHandler != nil {
			api.GET("/conversations", cfg.ConversationHandler.List)
			api.POST("/conversations", cfg.ConversationHandler.NewID)
			api.GET("/conversations/:id/settings", cfg.ConversationHandler.GetSettings)
			api.POST("/conversations/:id/settings", cfg.ConversationHandler.PostSettings)
			api.PATCH("/conversations/:id/settings", cfg.ConversationHandler.PatchSettings)
		}

		// Messages
		if cfg.MessageHandler != nil {
			api.GET("/conversations/:id/messages", cfg.MessageHandler.List)
			api.POST("/conversations/:id/messages", cfg.MessageHandler.Post)
		}

		// LLM registry
		if cfg.LLMHandler != nil {
			api.GET("/llms", cfg.LLMHandler.List)
			api.POST("/llms", cfg.LLMHandler.Create)
			api.PATCH("/llms", cfg.LLMHandler.UpdateActive)
			api.DELETE("/llms", cfg.LLMHandler.Delete)
		}

		// Users
		if cfg.UserHandler != nil {
			api.GET("/users", cfg.UserHandler.List)
		}
	}

	return r
}
