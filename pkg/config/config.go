package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultConfigPath      = "config.yaml"
	defaultAddr            = ":8000"
	defaultReadTimeout     = 30 * time.Second
	defaultMaxUploadMB     = 32
	defaultStaticDir       = "./static"
	defaultLLMProvider     = "openai"
	defaultLLMModel        = "Llama3"
	defaultLLMBaseURL      = "http://localhost:8080/v1"
	defaultLLMTemperature  = 0.1
	defaultLLMTimeout      = 2 * time.Minute
	defaultGroqModel       = "llama-3.3-70b-versatile"
	defaultGeminiModel     = "gemini-2.0-flash"
	defaultDeepSeekModel   = "deepseek-chat"
	defaultDeepSeekBaseURL = "https://api.deepseek.com/v1"
	defaultGeminiLocation  = "us-central1"
	defaultImageSource     = "generate"
	defaultImageModel      = "dall-e-3"
	defaultImageSize       = "1024x1024"
	defaultImageTimeout    = time.Minute
	defaultTemplatePath    = "templates/template.pptx"
	defaultUploadDir       = "./uploads"
	defaultOutputDir       = "./output"
	defaultCleanupSchedule = "@hourly"
	defaultCleanupMaxAge   = 24 * time.Hour
	defaultHistoryPath     = "./slidegen.db"
	defaultGCSPrefix       = "decks"
	defaultLanguage        = "ru"

	// Local OpenAI-compatible servers accept any key.
	noKeyRequired = "sk-no-key-required"
)

type Config struct {
	OpenAIAPIKey   string
	GroqAPIKey     string
	GeminiAPIKey   string
	DeepSeekAPIKey string
	ImageAPIKey    string
	SearchAPIKey   string
	SearchEngineID string
	GCPProject     string
	GCPLocation    string

	Server   ServerConfig   `yaml:"server"`
	LLM      LLMConfig      `yaml:"llm"`
	Images   ImagesConfig   `yaml:"images"`
	Template TemplateConfig `yaml:"template"`
	Storage  StorageConfig  `yaml:"storage"`
	Cleanup  CleanupConfig  `yaml:"cleanup"`
	History  HistoryConfig  `yaml:"history"`
	GCS      GCSConfig      `yaml:"gcs"`
	Secrets  SecretsConfig  `yaml:"secrets"`
	Content  ContentConfig  `yaml:"content"`
}

type ServerConfig struct {
	Addr        string        `yaml:"addr"`
	ReadTimeout time.Duration `yaml:"read_timeout"`
	MaxUploadMB int64         `yaml:"max_upload_mb"`
	StaticDir   string        `yaml:"static_dir"`
}

type LLMConfig struct {
	Provider    string        `yaml:"provider"` // "openai", "deepseek", "groq" or "gemini"
	Model       string        `yaml:"model"`
	BaseURL     string        `yaml:"base_url"`
	Temperature float32       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
}

type ImagesConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Source          string        `yaml:"source"` // "generate" or "search"
	Model           string        `yaml:"model"`
	Size            string        `yaml:"size"`
	BaseURL         string        `yaml:"base_url"`
	Timeout         time.Duration `yaml:"timeout"`
	DownloadRetries int           `yaml:"download_retries"`
}

type TemplateConfig struct {
	Path string `yaml:"path"`
}

type StorageConfig struct {
	UploadDir   string `yaml:"upload_dir"`
	OutputDir   string `yaml:"output_dir"`
	KeepOutputs bool   `yaml:"keep_outputs"`
}

type CleanupConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Schedule string        `yaml:"schedule"`
	MaxAge   time.Duration `yaml:"max_age"`
}

type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type GCSConfig struct {
	Enabled         bool   `yaml:"enabled"`
	Bucket          string `yaml:"bucket"`
	Prefix          string `yaml:"prefix"`
	CredentialsFile string `yaml:"credentials_file"`
}

// SecretsConfig names Secret Manager secrets that back API keys missing
// from the environment.
type SecretsConfig struct {
	Enabled     bool   `yaml:"enabled"`
	OpenAIKey   string `yaml:"openai_key"`
	GroqKey     string `yaml:"groq_key"`
	GeminiKey   string `yaml:"gemini_key"`
	DeepSeekKey string `yaml:"deepseek_key"`
	ImageKey    string `yaml:"image_key"`
	SearchKey   string `yaml:"search_key"`
}

type ContentConfig struct {
	Language string `yaml:"language"`
}

func Load(ctx context.Context) (*Config, error) {
	return LoadFrom(ctx, defaultConfigPath)
}

func LoadFrom(ctx context.Context, path string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, relying on environment variables")
	}

	cfg := &Config{
		OpenAIAPIKey:   os.Getenv("OPENAI_API_KEY"),
		GroqAPIKey:     os.Getenv("GROQ_API_KEY"),
		GeminiAPIKey:   os.Getenv("GEMINI_API_KEY"),
		DeepSeekAPIKey: os.Getenv("DEEPSEEK_API_KEY"),
		ImageAPIKey:    os.Getenv("IMAGE_API_KEY"),
		SearchAPIKey:   os.Getenv("GOOGLE_SEARCH_API_KEY"),
		SearchEngineID: os.Getenv("GOOGLE_SEARCH_ENGINE_ID"),
		GCPProject:     os.Getenv("GOOGLE_CLOUD_PROJECT"),
		GCPLocation:    getEnvOrDefault("GOOGLE_CLOUD_LOCATION", defaultGeminiLocation),
	}

	if err := loadYAMLConfig(cfg, path); err != nil {
		return nil, err
	}
	applyEnvOverrides(cfg)

	if cfg.Secrets.Enabled {
		if err := loadSecrets(ctx, cfg, newSecretManager); err != nil {
			return nil, fmt.Errorf("load secrets: %w", err)
		}
	}

	applyDefaults(cfg)
	return cfg, nil
}

func loadYAMLConfig(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		slog.Warn("No config file found, using defaults", "path", path)
		return nil
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// applyEnvOverrides maps the LLM_HOST, LLM_PORT and MODEL variables of local
// model servers onto the llm section, plus PORT for container platforms.
func applyEnvOverrides(cfg *Config) {
	if host := os.Getenv("LLM_HOST"); host != "" {
		cfg.LLM.BaseURL = fmt.Sprintf("%s:%s/v1", host, getEnvOrDefault("LLM_PORT", "8080"))
	}
	if model := os.Getenv("MODEL"); model != "" {
		cfg.LLM.Model = model
	}
	if provider := os.Getenv("LLM_PROVIDER"); provider != "" {
		cfg.LLM.Provider = provider
	}
	if port := os.Getenv("PORT"); port != "" {
		cfg.Server.Addr = ":" + port
	}
	if bucket := os.Getenv("GCS_BUCKET"); bucket != "" {
		cfg.GCS.Bucket = bucket
	}
}

func applyDefaults(cfg *Config) {
	applyServerDefaults(cfg)
	applyLLMDefaults(cfg)
	applyImagesDefaults(cfg)
	applyStorageDefaults(cfg)
	applyCleanupDefaults(cfg)
	applyHistoryDefaults(cfg)
	applyGCSDefaults(cfg)

	if cfg.Template.Path == "" {
		cfg.Template.Path = defaultTemplatePath
	}
	if cfg.Content.Language == "" {
		cfg.Content.Language = defaultLanguage
	}
}

func applyServerDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaultAddr
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = defaultReadTimeout
	}
	if cfg.Server.MaxUploadMB == 0 {
		cfg.Server.MaxUploadMB = defaultMaxUploadMB
	}
	if cfg.Server.StaticDir == "" {
		cfg.Server.StaticDir = defaultStaticDir
	}
}

func applyLLMDefaults(cfg *Config) {
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = defaultLLMProvider
	}
	if cfg.LLM.Model == "" {
		switch cfg.LLM.Provider {
		case "groq":
			cfg.LLM.Model = defaultGroqModel
		case "gemini":
			cfg.LLM.Model = defaultGeminiModel
		case "deepseek":
			cfg.LLM.Model = defaultDeepSeekModel
		default:
			cfg.LLM.Model = defaultLLMModel
		}
	}
	if cfg.LLM.BaseURL == "" {
		switch cfg.LLM.Provider {
		case "openai":
			cfg.LLM.BaseURL = defaultLLMBaseURL
		case "deepseek":
			cfg.LLM.BaseURL = defaultDeepSeekBaseURL
		}
	}
	if cfg.LLM.Temperature == 0 {
		cfg.LLM.Temperature = defaultLLMTemperature
	}
	if cfg.LLM.Timeout == 0 {
		cfg.LLM.Timeout = defaultLLMTimeout
	}
	if cfg.OpenAIAPIKey == "" {
		cfg.OpenAIAPIKey = noKeyRequired
	}
}

func applyImagesDefaults(cfg *Config) {
	if cfg.Images.Source == "" {
		cfg.Images.Source = defaultImageSource
	}
	if cfg.Images.Model == "" {
		cfg.Images.Model = defaultImageModel
	}
	if cfg.Images.Size == "" {
		cfg.Images.Size = defaultImageSize
	}
	if cfg.Images.Timeout == 0 {
		cfg.Images.Timeout = defaultImageTimeout
	}
	if cfg.Images.DownloadRetries < 0 {
		cfg.Images.DownloadRetries = 0
	}
	if cfg.ImageAPIKey == "" {
		cfg.ImageAPIKey = cfg.OpenAIAPIKey
	}
}

func applyStorageDefaults(cfg *Config) {
	if cfg.Storage.UploadDir == "" {
		cfg.Storage.UploadDir = defaultUploadDir
	}
	if cfg.Storage.OutputDir == "" {
		cfg.Storage.OutputDir = defaultOutputDir
	}
}

func applyCleanupDefaults(cfg *Config) {
	if cfg.Cleanup.Schedule == "" {
		cfg.Cleanup.Schedule = defaultCleanupSchedule
	}
	if cfg.Cleanup.MaxAge == 0 {
		cfg.Cleanup.MaxAge = defaultCleanupMaxAge
	}
}

func applyHistoryDefaults(cfg *Config) {
	if cfg.History.Path == "" {
		cfg.History.Path = defaultHistoryPath
	}
}

func applyGCSDefaults(cfg *Config) {
	if cfg.GCS.Prefix == "" {
		cfg.GCS.Prefix = defaultGCSPrefix
	}
	if cfg.GCS.Bucket != "" && !cfg.GCS.Enabled {
		slog.Debug("GCS bucket configured but archive disabled", "bucket", cfg.GCS.Bucket)
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
