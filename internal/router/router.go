package router

import (
	"net/http"
	"time"

	"github.com/pluzgi/chatbot-study-sub001/internal/config"
	"github.com/pluzgi/chatbot-study-sub001/internal/handlers"
	"github.com/pluzgi/chatbot-study-sub001/internal/services"
	"github.com/pluzgi/chatbot-study-sub001/internal/study"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/unrolled/secure"
	"go.uber.org/zap"
)

func keyFunc(c *gin.Context) string {
	return c.ClientIP()
}

func rateLimitHandler(c *gin.Context, info ratelimit.Info) {
	c.String(429, "Too many requests. Try again later.")
}

func newLimiter(rate time.Duration, limit uint) gin.HandlerFunc {
	store := ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
		Rate:  rate,
		Limit: limit,
	})
	return ratelimit.RateLimiter(store, &ratelimit.Options{
		ErrorHandler: rateLimitHandler,
		KeyFunc:      keyFunc,
	})
}

func Setup(log *zap.Logger, def *study.Definition, chat *services.ChatService) *gin.Engine {
	// Set up a new Gin router, add recovery middleware and request logging.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(log))

	store := cookie.NewStore([]byte(config.Conf.Server.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   false, // Set to true in production
		SameSite: http.SameSiteLaxMode,
		MaxAge:   86400 * 7,
	})
	router.Use(sessions.Sessions("studysession", store))

	secureMiddleware := secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
	})
	router.Use(func(c *gin.Context) {
		if err := secureMiddleware.Process(c.Writer, c.Request); err != nil {
			c.Abort()
			return
		}
	})

	// Handlers
	participantHandler := handlers.NewParticipantHandler(log, def)
	chatHandler := handlers.NewChatHandler(log, chat)
	clickHandler := handlers.NewClickHandler(log)
	statsHandler := handlers.NewStatsHandler(log)
	adminHandler := handlers.NewAdminHandler(log)

	// Initialization is the expensive path (fingerprint + allocation); the
	// chat relay is the slow one (hosted model). Both get per-IP limits.
	initLimiter := newLimiter(time.Minute, 5)
	chatLimiter := newLimiter(time.Minute, 20)

	api := router.Group("/api")
	{
		participants := api.Group("/participants")
		{
			participants.POST("", initLimiter, participantHandler.Initialize)
			participants.GET("/me", participantHandler.Me)
			participants.GET("/:id", participantHandler.Get)
			participants.POST("/:id/consent", participantHandler.AcceptConsent)
			participants.POST("/:id/baseline", participantHandler.RecordBaseline)
			participants.POST("/:id/chat", chatLimiter, chatHandler.Relay)
			participants.POST("/:id/decision/open", participantHandler.OpenDecision)
			participants.POST("/:id/decision", participantHandler.RecordDecision)
			participants.POST("/:id/survey", participantHandler.RecordSurvey)
		}

		api.POST("/clicks/:event", clickHandler.Increment)
		api.GET("/stats/participants", statsHandler.ParticipantCount)

		admin := api.Group("/admin")
		{
			admin.POST("/login", newLimiter(time.Minute, 5), adminHandler.Login)

			protected := admin.Group("/")
			protected.Use(AdminRequired(log))
			{
				protected.GET("/clicks", adminHandler.ListClicks)
				protected.DELETE("/participants", adminHandler.DeleteParticipants)
			}
		}
	}

	return router
}
