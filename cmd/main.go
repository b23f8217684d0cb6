package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/fableforge/whatif/adapters"
	"github.com/fableforge/whatif/adapters/illustration"
	"github.com/fableforge/whatif/adapters/live"
	storymongo "github.com/fableforge/whatif/adapters/mongo"
	"github.com/fableforge/whatif/audio/capture"
	"github.com/fableforge/whatif/audio/pcm"
	"github.com/fableforge/whatif/audio/player"
	"github.com/fableforge/whatif/domain/entities"
	"github.com/fableforge/whatif/domain/repositories"
	"github.com/fableforge/whatif/internal/api"
	"github.com/fableforge/whatif/internal/saga"
	"github.com/fableforge/whatif/internal/websocket"
	"github.com/fableforge/whatif/usecase"
)

// liveConversation adapts the live client to the session controller,
// rebuilding the connect configuration from current settings each time.
type liveConversation struct {
	client   *live.Client
	settings *entities.Settings
}

func (l *liveConversation) Connect(ctx context.Context) error {
	config := live.SessionConfig(l.settings.Voice(), l.settings.SystemInstruction())
	return l.client.Connect(ctx, config)
}

func (l *liveConversation) Disconnect() {
	l.client.Disconnect()
}

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Load .env for local development; ignore absence in production
	_ = godotenv.Load()

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		logger.Fatal("GEMINI_API_KEY is required")
	}

	ctx := context.Background()
	genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		logger.Fatal("Failed to create Gemini client", zap.Error(err))
	}

	// Story archive: MongoDB when configured, in-memory otherwise
	var storyRepo repositories.StoryRepository
	var mongoClient *storymongo.Client
	if os.Getenv("MONGODB_URI") != "" {
		mongoClient, err = storymongo.NewClient(logger)
		if err != nil {
			logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
		}
		storyRepo = storymongo.NewStoryRepository(mongoClient.Database)
	} else {
		logger.Info("MONGODB_URI not set, archiving stories in memory")
		storyRepo = adapters.NewMemoryStoryRepository()
	}

	// Audio output
	playbackDevice, err := player.NewPortAudioDevice(pcm.PlaybackSampleRate)
	if err != nil {
		logger.Fatal("Failed to open audio output", zap.Error(err))
	}
	speaker, err := player.New(playbackDevice, logger)
	if err != nil {
		logger.Fatal("Failed to start playback", zap.Error(err))
	}

	// Audio input
	micSource, err := capture.NewPortAudioSource()
	if err != nil {
		logger.Fatal("Failed to open microphone", zap.Error(err))
	}
	recorder := capture.NewRecorder(micSource, capture.DefaultEmitInterval, logger)

	// Core services
	settings := entities.NewSettings()
	illustrator := illustration.NewGeminiIllustrator(genaiClient, logger)
	story := usecase.NewStoryService(settings, illustrator, storyRepo, logger)
	liveClient := live.NewClient(genaiClient, os.Getenv("LIVE_MODEL"), logger)
	bridge := usecase.NewMicBridge(liveClient, story.AgentStatus(), live.CaptureMIMEType, logger)
	session := usecase.NewSessionController(
		saga.NewRunner(logger),
		&liveConversation{client: liveClient, settings: settings},
		recorder,
		speaker,
		logger,
	)

	// Viewer fan-out
	hub := websocket.NewHub(logger)
	go hub.Run()
	broadcaster := websocket.NewBroadcaster(hub, logger)
	broadcaster.BindStory(story)
	speaker.AddTap("viewer-meter", broadcaster.HandleVolume)

	// Session event wiring
	liveClient.OnAudio.Attach(speaker.EnqueuePCM16)
	liveClient.OnInputTranscription.Attach(func(tr live.Transcription) {
		story.HandleInputTranscription(tr.Text, tr.Final)
	})
	liveClient.OnOutputTranscription.Attach(func(tr live.Transcription) {
		story.HandleOutputTranscription(tr.Text, tr.Final)
	})
	liveClient.OnTurnComplete.Attach(func(struct{}) {
		story.HandleTurnComplete()
	})
	liveClient.OnClose.Attach(func(reason string) {
		// Tear down off the receive goroutine; Stop waits for it.
		go func() {
			session.Stop()
			broadcaster.Send(websocket.NewSessionMessage(false))
		}()
	})
	recorder.Data.Attach(bridge.HandleChunk)

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Initialize API routes
	api.InitRoutes(e, &api.Deps{
		Hub:         hub,
		Broadcaster: broadcaster,
		Settings:    settings,
		Story:       story,
		Session:     session,
		Stories:     storyRepo,
		Logger:      logger,
	})

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	go func() {
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("Server started", zap.String("port", port))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	session.Stop()
	if err := speaker.Close(); err != nil {
		logger.Warn("Failed to close playback", zap.Error(err))
	}
	if err := micSource.Close(); err != nil {
		logger.Warn("Failed to close microphone", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if mongoClient != nil {
		if err := mongoClient.Close(shutdownCtx); err != nil {
			logger.Warn("Failed to close MongoDB connection", zap.Error(err))
		}
	}
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
