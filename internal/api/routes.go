package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fableforge/whatif/domain/entities"
	"github.com/fableforge/whatif/domain/repositories"
	"github.com/fableforge/whatif/internal/auth"
	"github.com/fableforge/whatif/internal/websocket"
	"github.com/fableforge/whatif/usecase"
)

// Deps carries everything the HTTP surface needs.
type Deps struct {
	Hub         *websocket.Hub
	Broadcaster *websocket.Broadcaster
	Settings    *entities.Settings
	Story       *usecase.StoryService
	Session     *usecase.SessionController
	Stories     repositories.StoryRepository
	Logger      *zap.Logger
}

// InitRoutes initializes all API routes
func InitRoutes(e *echo.Echo, deps *Deps) {
	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":          "ok",
			"service":         "whatif-server",
			"session_running": deps.Session.Running(),
			"viewers":         deps.Hub.ViewerCount(),
		})
	})

	// API v1 routes
	v1 := e.Group("/api/v1")

	// Settings APIs
	v1.GET("/settings", func(c echo.Context) error {
		return c.JSON(http.StatusOK, settingsResponse(deps.Settings))
	})
	v1.PUT("/settings", func(c echo.Context) error {
		return updateSettings(c, deps)
	})

	// Story session APIs
	v1.POST("/story/start", func(c echo.Context) error {
		return startStory(c, deps)
	})
	v1.POST("/story/stop", func(c echo.Context) error {
		return stopStory(c, deps)
	})
	v1.POST("/story/new", func(c echo.Context) error {
		return newStory(c, deps)
	})

	// Story archive APIs
	v1.GET("/stories", func(c echo.Context) error {
		return listStories(c, deps)
	})

	// Viewer token API
	v1.POST("/viewer/token", func(c echo.Context) error {
		return viewerToken(c, deps)
	})

	// WebSocket endpoint with JWT validation
	e.GET("/ws", func(c echo.Context) error {
		return viewerSocket(c, deps)
	})
}

func settingsResponse(s *entities.Settings) SettingsResponse {
	return SettingsResponse{
		SystemPrompt:     s.SystemPrompt(),
		Voice:            s.Voice(),
		ResponseWindowMs: s.ResponseWindow().Milliseconds(),
		StoryLevel:       s.StoryLevel(),
		Audience:         string(s.Audience()),
	}
}

func updateSettings(c echo.Context, deps *Deps) error {
	var req UpdateSettingsRequest
	if err := c.Bind(&req); err != nil {
		deps.Logger.Error("Failed to bind settings request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}

	if req.SystemPrompt != nil {
		deps.Settings.SetSystemPrompt(*req.SystemPrompt)
	}
	if req.Voice != nil {
		deps.Settings.SetVoice(*req.Voice)
	}
	if req.ResponseWindowMs != nil {
		deps.Settings.SetResponseWindow(time.Duration(*req.ResponseWindowMs) * time.Millisecond)
	}
	if req.StoryLevel != nil {
		deps.Settings.SetStoryLevel(*req.StoryLevel)
	}
	if req.Audience != nil {
		deps.Settings.SetAudience(entities.Audience(*req.Audience))
	}

	deps.Logger.Info("Settings updated",
		zap.String("audience", string(deps.Settings.Audience())),
		zap.Int("story_level", deps.Settings.StoryLevel()))
	return c.JSON(http.StatusOK, settingsResponse(deps.Settings))
}

func startStory(c echo.Context, deps *Deps) error {
	if err := deps.Session.Start(c.Request().Context()); err != nil {
		deps.Logger.Error("Failed to start story session", zap.Error(err))
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error:   "session_start_failed",
			Message: err.Error(),
		})
	}
	deps.Broadcaster.Send(websocket.NewSessionMessage(true))
	return c.JSON(http.StatusOK, SessionStateResponse{Running: true})
}

func stopStory(c echo.Context, deps *Deps) error {
	deps.Session.Stop()
	deps.Broadcaster.Send(websocket.NewSessionMessage(false))
	return c.JSON(http.StatusOK, SessionStateResponse{Running: false})
}

// newStory archives the current conversation and clears it. The session
// keeps running; the storyteller simply starts fresh.
func newStory(c echo.Context, deps *Deps) error {
	story, err := deps.Story.NewStory(c.Request().Context())
	if err != nil {
		deps.Logger.Error("Failed to archive story", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "archive_failed",
			Message: "Failed to archive the story",
		})
	}
	if story == nil {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusOK, story)
}

func listStories(c echo.Context, deps *Deps) error {
	limit := 20
	if v := c.QueryParam("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	stories, err := deps.Stories.List(c.Request().Context(), limit)
	if err != nil {
		deps.Logger.Error("Failed to list stories", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "list_failed",
			Message: "Failed to list stories",
		})
	}
	if stories == nil {
		stories = []entities.Story{}
	}
	return c.JSON(http.StatusOK, stories)
}

func viewerToken(c echo.Context, deps *Deps) error {
	viewerID := uuid.NewString()
	token, err := auth.GenerateViewerToken(viewerID)
	if err != nil {
		deps.Logger.Error("Failed to generate viewer token", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "token_generation_failed",
			Message: "Failed to generate viewer token",
		})
	}

	return c.JSON(http.StatusOK, ViewerTokenResponse{
		Token:     token,
		ExpiresAt: time.Now().Add(24 * time.Hour),
		ViewerID:  viewerID,
	})
}

// viewerSocket authenticates the viewer and hands the connection to the
// hub. Browsers cannot set headers on a websocket request, so the token
// also travels as a query parameter.
func viewerSocket(c echo.Context, deps *Deps) error {
	token := c.QueryParam("token")
	if token == "" {
		authHeader := c.Request().Header.Get("Authorization")
		if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
			token = authHeader[7:]
		}
	}
	if token == "" {
		deps.Logger.Warn("WebSocket connection rejected: missing token")
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "missing_token",
			Message: "Viewer token is required",
		})
	}

	claims, err := auth.ValidateToken(token)
	if err != nil {
		deps.Logger.Warn("WebSocket connection rejected: invalid token", zap.Error(err))
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "invalid_token",
			Message: "Invalid or expired viewer token",
		})
	}
	if claims.Role != "viewer" || claims.ViewerID == "" {
		deps.Logger.Warn("WebSocket connection rejected: invalid claims",
			zap.String("role", claims.Role))
		return c.JSON(http.StatusForbidden, ErrorResponse{
			Error:   "invalid_role",
			Message: "Only viewer tokens are allowed",
		})
	}

	deps.Logger.Info("Viewer connection authenticated",
		zap.String("viewer_id", claims.ViewerID))
	return websocket.HandleViewer(deps.Hub, c, claims.ViewerID, deps.Logger)
}
