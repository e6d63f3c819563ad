package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/newthinker/finrag/internal/core"
	"github.com/spf13/viper"
)

type Config struct {
	Credentials CredentialsConfig `mapstructure:"credentials"`
	VectorStore VectorStoreConfig `mapstructure:"vector_store"`
	Models      ModelsConfig      `mapstructure:"models"`
	Retrieval   RetrievalConfig   `mapstructure:"retrieval"`
	Chunking    ChunkingConfig    `mapstructure:"chunking"`
	Paths       PathsConfig       `mapstructure:"paths"`
	Providers   ProvidersConfig   `mapstructure:"providers"`
	Export      ExportConfig      `mapstructure:"export"`
	Log         LogConfig         `mapstructure:"log"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
}

// CredentialsConfig holds API keys. Provider keys are optional; an empty key
// disables that provider.
type CredentialsConfig struct {
	OpenAIAPIKey   string `mapstructure:"openai_api_key"`
	PineconeAPIKey string `mapstructure:"pinecone_api_key"`
	FinnhubAPIKey  string `mapstructure:"finnhub_api_key"`
	FMPAPIKey      string `mapstructure:"fmp_api_key"`
}

type VectorStoreConfig struct {
	Environment string `mapstructure:"environment"`
	IndexName   string `mapstructure:"index_name"`
}

type ModelsConfig struct {
	Embedding          string  `mapstructure:"embedding"`
	EmbeddingDimension int     `mapstructure:"embedding_dimension"`
	LLM                string  `mapstructure:"llm"`
	Temperature        float64 `mapstructure:"temperature"`
	MaxTokens          int     `mapstructure:"max_tokens"`
}

type RetrievalConfig struct {
	TopK          int     `mapstructure:"top_k"`
	MinSimilarity float64 `mapstructure:"min_similarity"`
}

type ChunkingConfig struct {
	Size    int `mapstructure:"size"`
	Overlap int `mapstructure:"overlap"`
}

type PathsConfig struct {
	DataDir      string `mapstructure:"data_dir"`
	ProcessedDir string `mapstructure:"processed_dir"`
}

type ProvidersConfig struct {
	Timeout      time.Duration `mapstructure:"timeout"`
	NewsDaysBack int           `mapstructure:"news_days_back"`
	Workers      int           `mapstructure:"workers"`
}

// ExportConfig selects where `ingest --export` writes chunks.
type ExportConfig struct {
	Type string   `mapstructure:"type"` // "localfs" or "s3"
	Path string   `mapstructure:"path"` // For localfs, defaults to paths.processed_dir
	S3   S3Config `mapstructure:"s3"`   // For S3
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// envBindings maps config keys to the environment variables accepted for
// them, in priority order.
var envBindings = map[string][]string{
	"credentials.openai_api_key":   {"OPENAI_API_KEY"},
	"credentials.pinecone_api_key": {"PINECONE_API_KEY", "PINECONE_KEY"},
	"credentials.finnhub_api_key":  {"FINNHUB_API_KEY", "FINHUB_API_KEY"},
	"credentials.fmp_api_key":      {"FMP_API_KEY"},
	"vector_store.environment":     {"PINECONE_ENVIRONMENT"},
	"vector_store.index_name":      {"PINECONE_INDEX_NAME"},
}

// Load reads configuration from path, environment variables and defaults.
// An empty path skips the file.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// Support environment variable overrides
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for key, envs := range envBindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("binding %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if cfg.Export.Path == "" {
		cfg.Export.Path = cfg.Paths.ProcessedDir
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := Defaults()

	v.SetDefault("credentials.openai_api_key", "")
	v.SetDefault("credentials.pinecone_api_key", "")
	v.SetDefault("credentials.finnhub_api_key", "")
	v.SetDefault("credentials.fmp_api_key", "")

	v.SetDefault("vector_store.environment", d.VectorStore.Environment)
	v.SetDefault("vector_store.index_name", d.VectorStore.IndexName)

	v.SetDefault("models.embedding", d.Models.Embedding)
	v.SetDefault("models.embedding_dimension", d.Models.EmbeddingDimension)
	v.SetDefault("models.llm", d.Models.LLM)
	v.SetDefault("models.temperature", d.Models.Temperature)
	v.SetDefault("models.max_tokens", d.Models.MaxTokens)

	v.SetDefault("retrieval.top_k", d.Retrieval.TopK)
	v.SetDefault("retrieval.min_similarity", d.Retrieval.MinSimilarity)

	v.SetDefault("chunking.size", d.Chunking.Size)
	v.SetDefault("chunking.overlap", d.Chunking.Overlap)

	v.SetDefault("paths.data_dir", d.Paths.DataDir)
	v.SetDefault("paths.processed_dir", d.Paths.ProcessedDir)

	v.SetDefault("providers.timeout", d.Providers.Timeout)
	v.SetDefault("providers.news_days_back", d.Providers.NewsDaysBack)
	v.SetDefault("providers.workers", d.Providers.Workers)

	v.SetDefault("export.type", d.Export.Type)
	v.SetDefault("export.path", "")
	v.SetDefault("export.s3.bucket", "")
	v.SetDefault("export.s3.endpoint", "")
	v.SetDefault("export.s3.region", "")
	v.SetDefault("export.s3.access_key", "")
	v.SetDefault("export.s3.secret_key", "")
	v.SetDefault("export.s3.prefix", "")

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.development", d.Log.Development)

	v.SetDefault("metrics.addr", "")
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	return &Config{
		VectorStore: VectorStoreConfig{
			Environment: "gcp-starter",
			IndexName:   "financial-docs",
		},
		Models: ModelsConfig{
			Embedding:          "text-embedding-3-small",
			EmbeddingDimension: 1536,
			LLM:                "gpt-4o-mini",
			Temperature:        0.7,
			MaxTokens:          1000,
		},
		Retrieval: RetrievalConfig{
			TopK:          5,
			MinSimilarity: 0.7,
		},
		Chunking: ChunkingConfig{
			Size:    1000,
			Overlap: 200,
		},
		Paths: PathsConfig{
			DataDir:      "data/documents",
			ProcessedDir: "data/processed",
		},
		Providers: ProvidersConfig{
			Timeout:      10 * time.Second,
			NewsDaysBack: 7,
		},
		Export: ExportConfig{
			Type: "localfs",
			Path: "data/processed",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Validate checks the configuration for errors. All missing credentials are
// reported together, as are all invalid settings.
func (c *Config) Validate() error {
	var missing []string
	if c.Credentials.OpenAIAPIKey == "" {
		missing = append(missing, "OPENAI_API_KEY")
	}
	if c.Credentials.PineconeAPIKey == "" {
		missing = append(missing, "PINECONE_API_KEY")
	}

	var missingErr error
	if len(missing) > 0 {
		missingErr = core.Errorf(core.ErrConfigMissing,
			"missing required API keys: %s", strings.Join(missing, ", "))
	}

	return errors.Join(missingErr, c.validateSettings())
}

func (c *Config) validateSettings() error {
	var problems []error

	// Chunking validation
	if c.Chunking.Size <= 0 {
		problems = append(problems, fmt.Errorf("chunking.size must be positive, got %d", c.Chunking.Size))
	}
	if c.Chunking.Overlap < 0 || c.Chunking.Overlap >= c.Chunking.Size {
		problems = append(problems, fmt.Errorf("chunking.overlap must be in [0, size), got %d", c.Chunking.Overlap))
	}

	// Model validation
	if c.Models.EmbeddingDimension <= 0 {
		problems = append(problems, fmt.Errorf("models.embedding_dimension must be positive, got %d", c.Models.EmbeddingDimension))
	}
	if c.Models.Temperature < 0 || c.Models.Temperature > 2 {
		problems = append(problems, fmt.Errorf("models.temperature must be between 0 and 2, got %g", c.Models.Temperature))
	}
	if c.Models.MaxTokens <= 0 {
		problems = append(problems, fmt.Errorf("models.max_tokens must be positive, got %d", c.Models.MaxTokens))
	}

	// Retrieval validation
	if c.Retrieval.TopK <= 0 {
		problems = append(problems, fmt.Errorf("retrieval.top_k must be positive, got %d", c.Retrieval.TopK))
	}
	if c.Retrieval.MinSimilarity < 0 || c.Retrieval.MinSimilarity > 1 {
		problems = append(problems, fmt.Errorf("retrieval.min_similarity must be between 0 and 1, got %g", c.Retrieval.MinSimilarity))
	}

	// Provider validation
	if c.Providers.Timeout <= 0 {
		problems = append(problems, fmt.Errorf("providers.timeout must be positive, got %s", c.Providers.Timeout))
	}
	if c.Providers.NewsDaysBack < 1 {
		problems = append(problems, fmt.Errorf("providers.news_days_back must be at least 1, got %d", c.Providers.NewsDaysBack))
	}
	if c.Providers.Workers < 0 {
		problems = append(problems, fmt.Errorf("providers.workers cannot be negative, got %d", c.Providers.Workers))
	}

	// Export validation
	switch c.Export.Type {
	case "localfs":
	case "s3":
		if c.Export.S3.Bucket == "" {
			problems = append(problems, fmt.Errorf("export.s3.bucket required when export type is s3"))
		}
	default:
		problems = append(problems, fmt.Errorf("export.type must be localfs or s3, got %q", c.Export.Type))
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level))
	}

	if len(problems) == 0 {
		return nil
	}
	return core.WrapError(core.ErrConfigInvalid, errors.Join(problems...))
}

// EnsureDirs creates the document and processed directories.
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.ProcessedDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return nil
}
