package main

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/banterbox/server/adapters/audio"
	"github.com/banterbox/server/adapters/llm"
	"github.com/banterbox/server/adapters/tts"
	"github.com/banterbox/server/domain/repositories"
	"github.com/banterbox/server/internal/api"
	"github.com/banterbox/server/internal/auth"
	"github.com/banterbox/server/internal/config"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg := config.Load()
	auth.SetSecret(cfg.JWTSecret)

	ctx := context.Background()

	// Initialize adapters. Without an API key the server runs on mock
	// providers, which is enough for local frontend work.
	var chat repositories.ChatProvider
	var speech repositories.SpeechSynthesizer
	if cfg.GeminiAPIKey == "" {
		logger.Warn("GEMINI_API_KEY is not set, using mock providers")
		chat = llm.NewMockChatProvider(logger)
		speech = tts.NewMockTTS(logger)
	} else {
		provider, err := llm.NewGeminiProvider(ctx, cfg.GeminiAPIKey, cfg.TextModel, logger)
		if err != nil {
			logger.Fatal("Failed to create chat provider", zap.Error(err))
		}
		chat = provider

		synth, err := tts.NewGeminiTTS(ctx, cfg.GeminiAPIKey, cfg.TTSModel, logger)
		if err != nil {
			logger.Fatal("Failed to create speech synthesizer", zap.Error(err))
		}
		speech = synth
	}

	// Each conversation streams its audio to its own hub.
	mgr := api.NewManager(chat, speech, func(sink io.Writer) repositories.AudioOutput {
		return audio.NewOutput(sink, logger)
	}, cfg.TurnDelay, logger)

	// Create Echo instance
	e := echo.New()

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Initialize API routes
	api.InitRoutes(e, mgr, llm.ValidateKey, logger)

	// Graceful shutdown
	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("Server started", zap.String("port", cfg.Port))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	mgr.StopAll()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
