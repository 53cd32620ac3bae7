package app

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/magix-backend/internal/http"
	httpH "github.com/yungbote/magix-backend/internal/http/handlers"
	httpMW "github.com/yungbote/magix-backend/internal/http/middleware"
	"github.com/yungbote/magix-backend/internal/observability"
	"github.com/yungbote/magix-backend/internal/platform/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health       *httpH.HealthHandler
	Conversation *httpH.ConversationHandler
	Message      *httpH.MessageHandler
	LLM          *httpH.LLMHandler
	User         *httpH.UserHandler
}

func wireHandlers(log *logger.Logger, services Services, metrics *observability.Metrics) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:       httpH.NewHealthHandler(metrics),
		Conversation: httpH.NewConversationHandler(log, services.Conversation),
		Message:      httpH.NewMessageHandler(log, services.Message),
		LLM:          httpH.NewLLMHandler(log, services.LLM),
		User:         httpH.NewUserHandler(log, services.User),
	}
}

func wireMiddleware(log *logger.Logger, cfg Config, clients Clients) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, clients.TokenVerifier, cfg.AuthRequired),
	}
}

func wireRouter(log *logger.Logger, cfg Config, handlers Handlers, middleware Middleware, metrics *observability.Metrics) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	return http.NewRouter(http.RouterConfig{
		Log:                 log,
		ServiceName:         serviceName,
		AllowedOrigins:      cfg.AllowedOrigins,
		Metrics:             metrics,
		AuthMiddleware:      middleware.Auth,
		ConversationHandler: handlers.Conversation,
		MessageHandler:      handlers.Message,
		LLMHandler:          handlers.LLM,
		UserHandler:         handlers.User,
		HealthHandler:       handlers.Health,
	})
}
