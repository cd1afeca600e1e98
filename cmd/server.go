package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/satriahrh/marcus/adapters"
	"github.com/satriahrh/marcus/adapters/stt"
	"github.com/satriahrh/marcus/adapters/tts"
	"github.com/satriahrh/marcus/domain/repositories"
	"github.com/satriahrh/marcus/internal/api"
	"github.com/satriahrh/marcus/internal/auth"
	"github.com/satriahrh/marcus/internal/config"
	"github.com/satriahrh/marcus/internal/websocket"
	"github.com/satriahrh/marcus/usecase"
)

// serve runs the device server until ctx is done
func serve(ctx context.Context, cfg *config.Config, assistant *usecase.AssistantService, profiles repositories.ProfileRepository, logger *zap.Logger) error {
	issuer, err := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}

	devices, err := adapters.NewMemoryDeviceRepositoryFromCredentials(ctx, cfg.Auth.Devices)
	if err != nil {
		return err
	}
	if len(cfg.Auth.Devices) == 0 {
		logger.Warn("DEVICE_CREDENTIALS is empty, no device can authenticate")
	}

	var sttRepo repositories.SpeechToText
	if cfg.Speech.GoogleEnabled {
		google, err := stt.NewGoogleSpeechToText(ctx, logger)
		if err != nil {
			return err
		}
		defer google.Close()
		sttRepo = google
	}

	var ttsRepo repositories.TextToSpeech
	if cfg.ElevenLabs.APIKey != "" {
		elevenLabs, err := tts.NewElevenLabsTTS(cfg.ElevenLabs, logger)
		if err != nil {
			return err
		}
		ttsRepo = elevenLabs
	}

	// Initialize WebSocket hub; every device gets its own conversation
	hub := websocket.NewHub(assistant, sttRepo, ttsRepo, websocket.Options{
		Audio: repositories.AudioConfig{
			SampleRate: cfg.Speech.SampleRate,
			Encoding:   cfg.Speech.Encoding,
			Language:   cfg.Speech.Language,
		},
		ListenTimeout: cfg.Speech.ListenTimeout,
	}, logger)
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go hub.Run(hubCtx)

	reaper := websocket.NewIdleReaper(hub, cfg.HTTP.IdleTimeout, logger)
	reaper.Start()
	defer reaper.Stop()

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Info("HTTP request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("requestID", v.RequestID))
			return nil
		},
	}))

	api.InitRoutes(e, api.Dependencies{
		Hub:      hub,
		Devices:  devices,
		Issuer:   issuer,
		Profiles: profiles,
		Commands: assistant,
	}, logger)

	serverErr := make(chan error, 1)
	go func() {
		if err := e.Start(cfg.HTTP.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	logger.Info("Server started",
		zap.String("addr", cfg.HTTP.Addr()),
		zap.Bool("speechToText", sttRepo != nil),
		zap.Bool("textToSpeech", ttsRepo != nil))

	// Wait for interrupt signal to gracefully shutdown the server
	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("Server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		return err
	}

	stopHub()
	hub.Wait()
	logger.Info("All device connections closed")
	return nil
}
