// Package config loads runtime configuration from the environment, an
// optional .env file and an optional config.env file. Environment variables
// take precedence.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	ChannelConsole = "console"
	ChannelServer  = "server"

	StoreFile     = "file"
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
)

// Config groups the assistant configuration
type Config struct {
	App        AppConfig
	Log        LogConfig
	HTTP       HTTPConfig
	Auth       AuthConfig
	Profile    ProfileConfig
	Speech     SpeechConfig
	ElevenLabs ElevenLabsConfig
	Gemini     GeminiConfig
	Services   ServicesConfig
}

// AppConfig selects how the assistant talks to its user
type AppConfig struct {
	Name           string
	Channel        string // console or server
	TranscriptFile string
	SiteURL        string
	Timezone       string
}

// LogConfig configures the debug log
type LogConfig struct {
	File  string
	Level string
}

// HTTPConfig configures the device server
type HTTPConfig struct {
	Host string
	Port int
	// IdleTimeout disconnects devices that send nothing for this long
	IdleTimeout time.Duration
}

// Addr returns host:port
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// AuthConfig configures device authentication
type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
	// Devices holds "serial:secret" pairs allowed to connect
	Devices []string
}

// ProfileConfig selects the business profile backend
type ProfileConfig struct {
	Store         string
	File          string
	MongoURI      string
	MongoDatabase string
	DatabaseURL   string
}

// SpeechConfig configures speech recognition
type SpeechConfig struct {
	GoogleEnabled bool
	Language      string
	SampleRate    int
	Encoding      string
	ListenTimeout time.Duration
}

// ElevenLabsConfig configures speech synthesis; empty APIKey disables it
type ElevenLabsConfig struct {
	APIKey       string
	APIBaseURL   string
	VoiceID      string
	ModelID      string
	OutputFormat string
	ChunkSize    int
	Stability    float64
	Clarity      float64
}

// GeminiConfig configures the LLM fallback; empty APIKey disables it
type GeminiConfig struct {
	APIKey string
	Model  string
}

// ServicesConfig holds endpoints of the external feature services
type ServicesConfig struct {
	QuoteBaseURL       string
	TranslateBaseURL   string
	WikipediaBaseURL   string
	WikipediaLanguage  string
	WikipediaUserAgent string
	RequestTimeout     time.Duration
}

// Load reads configuration. A missing .env or config.env is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config.env: %w", err)
		}
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	cfg := &Config{
		App: AppConfig{
			Name:           v.GetString("ASSISTANT_NAME"),
			Channel:        strings.ToLower(v.GetString("MARCUS_CHANNEL")),
			TranscriptFile: v.GetString("TRANSCRIPT_FILE"),
			SiteURL:        v.GetString("SITE_URL"),
			Timezone:       v.GetString("TZ_NAME"),
		},
		Log: LogConfig{
			File:  v.GetString("LOG_FILE"),
			Level: v.GetString("LOG_LEVEL"),
		},
		HTTP: HTTPConfig{
			Host:        v.GetString("HTTP_HOST"),
			Port:        v.GetInt("PORT"),
			IdleTimeout: v.GetDuration("DEVICE_IDLE_TIMEOUT"),
		},
		Auth: AuthConfig{
			JWTSecret: v.GetString("JWT_SECRET"),
			TokenTTL:  v.GetDuration("JWT_TTL"),
			Devices:   splitList(v.GetString("DEVICE_CREDENTIALS")),
		},
		Profile: ProfileConfig{
			Store:         strings.ToLower(v.GetString("PROFILE_STORE")),
			File:          v.GetString("PROFILE_FILE"),
			MongoURI:      v.GetString("MONGODB_URI"),
			MongoDatabase: v.GetString("MONGODB_DATABASE"),
			DatabaseURL:   v.GetString("DATABASE_URL"),
		},
		Speech: SpeechConfig{
			GoogleEnabled: v.GetBool("GOOGLE_STT_ENABLED"),
			Language:      v.GetString("STT_LANGUAGE"),
			SampleRate:    v.GetInt("STT_SAMPLE_RATE"),
			Encoding:      v.GetString("STT_ENCODING"),
			ListenTimeout: v.GetDuration("LISTEN_TIMEOUT"),
		},
		ElevenLabs: ElevenLabsConfig{
			APIKey:       v.GetString("ELEVEN_LABS_API_KEY"),
			APIBaseURL:   v.GetString("ELEVEN_LABS_API_BASE_URL"),
			VoiceID:      v.GetString("ELEVEN_LABS_VOICE_ID"),
			ModelID:      v.GetString("ELEVEN_LABS_MODEL_ID"),
			OutputFormat: v.GetString("ELEVEN_LABS_OUTPUT_FORMAT"),
			ChunkSize:    v.GetInt("ELEVEN_LABS_CHUNK_SIZE"),
			Stability:    v.GetFloat64("ELEVEN_LABS_STABILITY"),
			Clarity:      v.GetFloat64("ELEVEN_LABS_CLARITY"),
		},
		Gemini: GeminiConfig{
			APIKey: v.GetString("GEMINI_API_KEY"),
			Model:  v.GetString("GEMINI_MODEL"),
		},
		Services: ServicesConfig{
			QuoteBaseURL:       v.GetString("QUOTE_BASE_URL"),
			TranslateBaseURL:   v.GetString("TRANSLATE_BASE_URL"),
			WikipediaBaseURL:   v.GetString("WIKIPEDIA_BASE_URL"),
			WikipediaLanguage:  v.GetString("WIKIPEDIA_LANGUAGE"),
			WikipediaUserAgent: v.GetString("WIKIPEDIA_USER_AGENT"),
			RequestTimeout:     v.GetDuration("SERVICE_TIMEOUT"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ASSISTANT_NAME", "Marcus AI")
	v.SetDefault("MARCUS_CHANNEL", ChannelConsole)
	v.SetDefault("TRANSCRIPT_FILE", "spoken_responses.txt")
	v.SetDefault("SITE_URL", "https://skyaidevelopment01.wixsite.com/skyai-1")
	v.SetDefault("TZ_NAME", "Local")

	v.SetDefault("LOG_FILE", "marcus.log")
	v.SetDefault("LOG_LEVEL", "debug")

	v.SetDefault("HTTP_HOST", "0.0.0.0")
	v.SetDefault("PORT", 8080)
	v.SetDefault("DEVICE_IDLE_TIMEOUT", 30*time.Minute)

	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_TTL", 24*time.Hour)
	v.SetDefault("DEVICE_CREDENTIALS", "")

	v.SetDefault("PROFILE_STORE", StoreFile)
	v.SetDefault("PROFILE_FILE", "business_details.json")
	v.SetDefault("MONGODB_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGODB_DATABASE", "marcus")
	v.SetDefault("DATABASE_URL", "")

	v.SetDefault("GOOGLE_STT_ENABLED", false)
	v.SetDefault("STT_LANGUAGE", "en-US")
	v.SetDefault("STT_SAMPLE_RATE", 16000)
	v.SetDefault("STT_ENCODING", "LINEAR16")
	v.SetDefault("LISTEN_TIMEOUT", 5*time.Second)

	v.SetDefault("ELEVEN_LABS_API_KEY", "")
	v.SetDefault("ELEVEN_LABS_API_BASE_URL", "")
	v.SetDefault("ELEVEN_LABS_VOICE_ID", "")
	v.SetDefault("ELEVEN_LABS_MODEL_ID", "")
	v.SetDefault("ELEVEN_LABS_OUTPUT_FORMAT", "")
	v.SetDefault("ELEVEN_LABS_CHUNK_SIZE", 0)
	v.SetDefault("ELEVEN_LABS_STABILITY", 0.0)
	v.SetDefault("ELEVEN_LABS_CLARITY", 0.0)

	v.SetDefault("GEMINI_API_KEY", "")
	v.SetDefault("GEMINI_MODEL", "gemini-2.0-flash")

	v.SetDefault("QUOTE_BASE_URL", "https://query1.finance.yahoo.com")
	v.SetDefault("TRANSLATE_BASE_URL", "https://translate.googleapis.com")
	v.SetDefault("WIKIPEDIA_BASE_URL", "")
	v.SetDefault("WIKIPEDIA_LANGUAGE", "en")
	v.SetDefault("WIKIPEDIA_USER_AGENT", "MarcusAI/1.0 (https://skyaidevelopment01.wixsite.com/skyai-1)")
	v.SetDefault("SERVICE_TIMEOUT", 10*time.Second)
}

// Validate checks values that would otherwise fail late at runtime
func (c *Config) Validate() error {
	switch c.App.Channel {
	case ChannelConsole, ChannelServer:
	default:
		return fmt.Errorf("MARCUS_CHANNEL must be %q or %q, got %q", ChannelConsole, ChannelServer, c.App.Channel)
	}

	switch c.Profile.Store {
	case StoreFile, StoreMongo, StorePostgres:
	default:
		return fmt.Errorf("PROFILE_STORE must be file, mongo or postgres, got %q", c.Profile.Store)
	}

	if c.Profile.Store == StorePostgres && c.Profile.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required when PROFILE_STORE=postgres")
	}

	if c.App.Channel == ChannelServer && c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required when MARCUS_CHANNEL=server")
	}

	if c.HTTP.Port <= 0 {
		return fmt.Errorf("PORT must be positive, got %d", c.HTTP.Port)
	}

	return nil
}

// Location resolves the configured timezone
func (c *Config) Location() (*time.Location, error) {
	if c.App.Timezone == "" || c.App.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.App.Timezone)
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
