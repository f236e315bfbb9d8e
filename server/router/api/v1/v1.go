// Package v1 exposes the HTTP API: story CRUD, memory analysis,
// connection detection, conversational context, chat, and transcription.
package v1

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/lifetales/lifetales/internal/profile"
	"github.com/lifetales/lifetales/plugin/ai/analysis"
	"github.com/lifetales/lifetales/plugin/ai/assistant"
	"github.com/lifetales/lifetales/plugin/ai/cache"
	"github.com/lifetales/lifetales/plugin/ai/connection"
	"github.com/lifetales/lifetales/plugin/ai/contextstore"
	"github.com/lifetales/lifetales/plugin/ai/llm"
	"github.com/lifetales/lifetales/plugin/ai/session"
	"github.com/lifetales/lifetales/plugin/ai/transcribe"
	"github.com/lifetales/lifetales/internal/observability"
	"github.com/lifetales/lifetales/store"
)

// APIV1Service wires the core services behind the v1 HTTP routes.
type APIV1Service struct {
	Profile *profile.Profile
	Store   *store.Store

	Engine      *analysis.Engine
	Detector    *connection.Detector
	Linker      *connection.Linker
	Contexts    *contextstore.Service
	Assistant   *assistant.Service
	Sessions    *session.Manager
	Transcriber transcribe.Transcriber
}

// NewAPIV1Service constructs the service graph for the v1 API.
func NewAPIV1Service(prof *profile.Profile, st *store.Store) *APIV1Service {
	engine := analysis.NewEngine()
	cacheService := cache.NewService(cache.DefaultServiceConfig())
	contexts := contextstore.NewService(st, cacheService, engine)

	var provider llm.CompletionService
	var transcriber transcribe.Transcriber
	if prof.IsAIEnabled() {
		provider = llm.NewOpenAIProvider(&llm.Config{
			BaseURL:     prof.AIBaseURL,
			APIKey:      prof.AIAPIKey,
			Model:       prof.AIModel,
			MaxTokens:   prof.AIMaxTokens,
			Temperature: float64(prof.AITemperature),
		})
		if prof.TranscribeEnabled {
			transcriber = transcribe.NewWhisperTranscriber(&transcribe.Config{
				BaseURL:  prof.AIBaseURL,
				APIKey:   prof.AIAPIKey,
				Model:    prof.TranscribeModel,
				Language: prof.TranscribeLanguage,
			})
		}
	} else {
		slog.Warn("AI provider not configured, chat and transcription are disabled")
	}

	assistantSvc := assistant.NewService(provider, contexts, engine, st)

	return &APIV1Service{
		Profile:     prof,
		Store:       st,
		Engine:      engine,
		Detector:    connection.NewDetector(),
		Linker:      connection.NewLinker(st),
		Contexts:    contexts,
		Assistant:   assistantSvc,
		Sessions:    session.NewManager(engine, assistantSvc, contexts),
		Transcriber: transcriber,
	}
}

// Close releases service resources.
func (s *APIV1Service) Close() {
	s.Sessions.Close()
	s.Assistant.Close()
}

// Register mounts the v1 routes on the echo server.
func (s *APIV1Service) Register(e *echo.Echo) {
	api := e.Group("/api/v1")
	api.Use(middleware.CORS())
	api.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(20))))
	api.Use(s.requestContextMiddleware)

	api.POST("/analyze", s.Analyze)
	api.POST("/detect", s.Detect)

	api.POST("/stories", s.CreateStory)
	api.GET("/stories", s.ListStories)
	api.GET("/stories/:id", s.GetStory)
	api.PATCH("/stories/:id", s.UpdateStory)
	api.DELETE("/stories/:id", s.DeleteStory)

	api.GET("/stories/:id/context", s.LoadContext)
	api.POST("/stories/:id/context", s.SaveContext)

	api.POST("/stories/:id/session", s.InitializeSession)
	api.GET("/stories/:id/messages", s.ListMessages)
	api.POST("/stories/:id/messages", s.SendMessage)
	api.DELETE("/stories/:id/messages", s.ClearMessages)
	api.POST("/stories/:id/chat", s.Chat)
	api.POST("/stories/:id/revise", s.ReviseStory)

	api.GET("/connections", s.ListConnections)
	api.DELETE("/connections/:id", s.DeleteConnection)

	api.POST("/transcribe", s.Transcribe)
}

// requestContextMiddleware seeds each request with a logging context.
func (s *APIV1Service) requestContextMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		rc := observability.NewRequestContext(slog.Default(), 0, currentUserID(c))
		ctx := observability.WithRequestContext(c.Request().Context(), rc)
		c.SetRequest(c.Request().WithContext(ctx))

		err := next(c)

		rc.Debug("request completed",
			"method", c.Request().Method,
			"path", c.Path(),
			observability.LogFieldDuration, rc.DurationMs())
		return err
	}
}

// currentUserID resolves the acting user. The app is single-user today;
// the header hook exists so a hosted deployment can front this with auth.
func currentUserID(c echo.Context) int32 {
	if c.Request().Header.Get("X-User-ID") != "" {
		if id, err := parseID(c.Request().Header.Get("X-User-ID")); err == nil {
			return id
		}
	}
	return 1
}

// health endpoints live outside the v1 group.

// RegisterHealth mounts liveness endpoints.
func (s *APIV1Service) RegisterHealth(e *echo.Echo) {
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
}
