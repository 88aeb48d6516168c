package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/dyike/SectorsGo/consts"
)

const (
	DefaultSectorsBaseURL = "https://api.sectors.app/v1"
	DefaultHTTPTimeout    = 30 * time.Second
)

type Config struct {
	ProjectDir string `json:"project_dir"`
	DataDir    string `json:"data_dir" validate:"required"`

	// Sectors API
	SectorsAPIKey  string        `json:"-"`
	SectorsBaseURL string        `json:"sectors_base_url" validate:"required,url"`
	HTTPTimeout    time.Duration `json:"http_timeout" validate:"gte=0"`
	HTTPMaxRetries int           `json:"http_max_retries" validate:"gte=0,lte=10"`

	// LLM backend
	LLMProvider   string  `json:"llm_provider" validate:"oneof=groq ollama deepseek openai"`
	LLMModel      string  `json:"llm_model"`
	LLMBaseURL    string  `json:"llm_base_url" validate:"omitempty,url"`
	Temperature   float32 `json:"temperature" validate:"gte=0,lte=2"`
	MaxTokens     int     `json:"max_tokens" validate:"gte=0"`
	AgentMaxSteps int     `json:"agent_max_steps" validate:"gte=1,lte=100"`

	// AI Model API Keys
	GroqAPIKey     string `json:"-"`
	DeepSeekAPIKey string `json:"-"`
	OpenAIAPIKey   string `json:"-"`

	HistoryEnabled bool   `json:"history_enabled"`
	HistoryDB      string `json:"history_db" validate:"required_if=HistoryEnabled true"`

	LogLevel string `json:"log_level" validate:"oneof=trace debug info warn error"`
	Debug    bool   `json:"debug"`

	// Eino Debug configuration
	EinoDebugEnabled bool `json:"eino_debug_enabled"`
	EinoDebugPort    int  `json:"eino_debug_port" validate:"gte=1,lte=65535"`
}

// Default models and endpoints per provider. An empty base URL means the
// client library default.
var (
	defaultModels = map[string]string{
		consts.ProviderGroq:     "qwen-2.5-32b",
		consts.ProviderOllama:   "llama3.2:latest",
		consts.ProviderDeepSeek: "deepseek-chat",
		consts.ProviderOpenAI:   "gpt-4o-mini",
	}
	defaultBaseURLs = map[string]string{
		consts.ProviderGroq:   "https://api.groq.com/openai/v1",
		consts.ProviderOllama: "http://localhost:11434/v1",
	}
)

// New returns the built-in defaults without reading .env or the environment.
func New() *Config {
	currentDir, _ := os.Getwd()

	return &Config{
		ProjectDir: currentDir,
		DataDir:    filepath.Join(currentDir, "data"),

		SectorsBaseURL: DefaultSectorsBaseURL,
		HTTPTimeout:    DefaultHTTPTimeout,
		HTTPMaxRetries: 0,

		LLMProvider:   consts.ProviderGroq,
		Temperature:   0,
		MaxTokens:     4096,
		AgentMaxSteps: 12,

		HistoryEnabled: false,
		HistoryDB:      filepath.Join(currentDir, "data", "history.db"),

		LogLevel: "info",
		Debug:    false,

		EinoDebugEnabled: false,
		EinoDebugPort:    52538,
	}
}

func DefaultConfig() *Config {
	cfg := New()

	// Load environment variables from .env file
	_ = godotenv.Load()

	// Override with environment variables if they exist
	cfg.loadFromEnv()

	return cfg
}

func (c *Config) loadFromEnv() {
	if val := os.Getenv("PROJECT_DIR"); val != "" {
		c.ProjectDir = val
	}
	if val := os.Getenv("DATA_DIR"); val != "" {
		c.DataDir = val
		c.HistoryDB = filepath.Join(val, "history.db")
	}

	if val := os.Getenv("SECTORS_API_KEY"); val != "" {
		c.SectorsAPIKey = val
	}
	if val := os.Getenv("URL_API"); val != "" {
		c.SectorsBaseURL = strings.TrimRight(val, "/")
	}
	if val := os.Getenv("HTTP_TIMEOUT"); val != "" {
		if d, err := parseDuration(val); err == nil {
			c.HTTPTimeout = d
		}
	}
	if val := os.Getenv("HTTP_MAX_RETRIES"); val != "" {
		if v, err := strconv.Atoi(val); err == nil {
			c.HTTPMaxRetries = v
		}
	}

	if val := os.Getenv("LLM_PROVIDER"); val != "" {
		c.LLMProvider = strings.ToLower(strings.TrimSpace(val))
	}
	if val := os.Getenv("LLM_MODEL"); val != "" {
		c.LLMModel = val
	}
	if val := os.Getenv("LLM_BASE_URL"); val != "" {
		c.LLMBaseURL = val
	}
	if val := os.Getenv("LLM_TEMPERATURE"); val != "" {
		if v, err := strconv.ParseFloat(val, 32); err == nil {
			c.Temperature = float32(v)
		}
	}
	if val := os.Getenv("LLM_MAX_TOKENS"); val != "" {
		if v, err := strconv.Atoi(val); err == nil {
			c.MaxTokens = v
		}
	}
	if val := os.Getenv("AGENT_MAX_STEPS"); val != "" {
		if v, err := strconv.Atoi(val); err == nil {
			c.AgentMaxSteps = v
		}
	}

	if val := os.Getenv("GROQ_API_KEY"); val != "" {
		c.GroqAPIKey = val
	}
	if val := os.Getenv("DEEPSEEK_API_KEY"); val != "" {
		c.DeepSeekAPIKey = val
	}
	if val := os.Getenv("OPENAI_API_KEY"); val != "" {
		c.OpenAIAPIKey = val
	}

	if val := os.Getenv("HISTORY_ENABLED"); val != "" {
		if enabled, err := strconv.ParseBool(val); err == nil {
			c.HistoryEnabled = enabled
		}
	}
	if val := os.Getenv("HISTORY_DB"); val != "" {
		c.HistoryDB = val
	}

	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.LogLevel = strings.ToLower(val)
	}
	if val := os.Getenv("SECTORSGO_DEBUG"); val != "" {
		if enabled, err := strconv.ParseBool(val); err == nil {
			c.Debug = enabled
		}
	}

	if val := os.Getenv("EINO_DEBUG_ENABLED"); val != "" {
		if enabled, err := strconv.ParseBool(val); err == nil {
			c.EinoDebugEnabled = enabled
		}
	}
	if val := os.Getenv("EINO_DEBUG_PORT"); val != "" {
		if port, err := strconv.Atoi(val); err == nil {
			c.EinoDebugPort = port
		}
	}
}

// parseDuration accepts Go durations ("45s") and bare seconds ("45").
func parseDuration(val string) (time.Duration, error) {
	if secs, err := strconv.Atoi(val); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	return time.ParseDuration(val)
}

// Validate checks field constraints. Missing credentials are not errors here;
// see Warnings.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(err, "invalid configuration")
	}
	return nil
}

// Warnings lists settings that leave some feature unusable.
func (c *Config) Warnings() []string {
	var warnings []string
	if c.SectorsAPIKey == "" {
		warnings = append(warnings, "SECTORS_API_KEY is not set; data requests will be rejected")
	}
	if c.LLMProvider != consts.ProviderOllama && c.LLMAPIKey() == "" {
		warnings = append(warnings, fmt.Sprintf("no API key configured for LLM provider %q", c.LLMProvider))
	}
	return warnings
}

// Model returns the configured model name or the provider default.
func (c *Config) Model() string {
	if c.LLMModel != "" {
		return c.LLMModel
	}
	return defaultModels[c.LLMProvider]
}

// ModelBaseURL returns the configured LLM endpoint or the provider default.
func (c *Config) ModelBaseURL() string {
	if c.LLMBaseURL != "" {
		return c.LLMBaseURL
	}
	return defaultBaseURLs[c.LLMProvider]
}

// LLMAPIKey returns the credential for the selected provider.
func (c *Config) LLMAPIKey() string {
	switch c.LLMProvider {
	case consts.ProviderGroq:
		return c.GroqAPIKey
	case consts.ProviderDeepSeek:
		return c.DeepSeekAPIKey
	case consts.ProviderOpenAI:
		return c.OpenAIAPIKey
	case consts.ProviderOllama:
		// Ollama ignores the key but the OpenAI client refuses an empty one.
		return "ollama"
	}
	return ""
}

func (c *Config) EnsureDirectories() error {
	dirs := []string{c.DataDir}
	if c.HistoryEnabled {
		dirs = append(dirs, filepath.Dir(c.HistoryDB))
	}
	for _, dir := range dirs {
		path := strings.TrimSpace(dir)
		if path == "" {
			continue
		}
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", path, err)
		}
	}
	return nil
}
