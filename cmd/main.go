package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/satriahrh/marcus/adapters/finance"
	"github.com/satriahrh/marcus/adapters/jokes"
	"github.com/satriahrh/marcus/adapters/launcher"
	"github.com/satriahrh/marcus/adapters/llm"
	"github.com/satriahrh/marcus/adapters/profile"
	"github.com/satriahrh/marcus/adapters/transcript"
	"github.com/satriahrh/marcus/adapters/translate"
	"github.com/satriahrh/marcus/adapters/wikipedia"
	"github.com/satriahrh/marcus/domain/entities"
	"github.com/satriahrh/marcus/domain/repositories"
	"github.com/satriahrh/marcus/internal/config"
	"github.com/satriahrh/marcus/internal/console"
	"github.com/satriahrh/marcus/internal/logging"
	"github.com/satriahrh/marcus/internal/reminder"
	"github.com/satriahrh/marcus/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Marcus stopped with error", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
	logger.Info("Marcus exited")
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	// Initialize adapters
	profiles, closeProfiles, err := openProfileStore(ctx, cfg.Profile, logger)
	if err != nil {
		return err
	}
	defer closeProfiles()

	transcriptWriter, err := transcript.NewFileWriter(cfg.App.TranscriptFile, logger)
	if err != nil {
		return err
	}
	defer transcriptWriter.Close()

	loc, err := cfg.Location()
	if err != nil {
		return fmt.Errorf("invalid TZ_NAME %q: %w", cfg.App.Timezone, err)
	}
	reminders := reminder.NewScheduler(loc, logger)
	defer reminders.Stop()

	httpClient := &http.Client{Timeout: cfg.Services.RequestTimeout}

	deps := usecase.Dependencies{
		Profiles:   profiles,
		Transcript: transcriptWriter,
		Quotes:     finance.NewYahooQuoter(cfg.Services.QuoteBaseURL, httpClient, logger),
		Translator: translate.NewGoogleTranslator(cfg.Services.TranslateBaseURL, httpClient, logger),
		Wiki: wikipedia.NewClient(cfg.Services.WikipediaBaseURL, cfg.Services.WikipediaLanguage,
			cfg.Services.WikipediaUserAgent, httpClient, logger),
		Jokes:     jokes.NewTeller(),
		Launcher:  launcher.NewDesktop(logger),
		Reminders: reminders,
	}

	if cfg.Gemini.APIKey != "" {
		gemini, err := llm.NewGeminiLLM(ctx, cfg.Gemini, logger)
		if err != nil {
			return err
		}
		deps.Chat = usecase.NewChatService(gemini, logger)
	} else {
		logger.Info("GEMINI_API_KEY not set, unknown commands get the fixed reply")
	}

	// Initialize usecase services
	assistant := usecase.NewAssistantService(cfg.App.Name, cfg.App.SiteURL, deps, logger)

	switch cfg.App.Channel {
	case config.ChannelServer:
		return serve(ctx, cfg, assistant, profiles, logger)
	default:
		logger.Info("Starting console conversation")
		err := assistant.Run(ctx, console.New(os.Stdin, os.Stdout), entities.ConsoleChannel)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}
}

// openProfileStore selects the business profile backend
func openProfileStore(ctx context.Context, cfg config.ProfileConfig, logger *zap.Logger) (repositories.ProfileRepository, func(), error) {
	switch cfg.Store {
	case config.StoreMongo:
		client, err := profile.NewMongoClient(ctx, cfg.MongoURI, cfg.MongoDatabase, logger)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Close(ctx)
		}
		return profile.NewMongoRepository(client.Database, logger), closeFn, nil

	case config.StorePostgres:
		repo, err := profile.NewPostgresRepository(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return nil, nil, err
		}
		return repo, repo.Close, nil

	default:
		return profile.NewFileRepository(cfg.File, logger), func() {}, nil
	}
}
