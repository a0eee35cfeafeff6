package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// IngestConfig governs C1 validation/normalization.
type IngestConfig struct {
	Version                 int      `mapstructure:"VERSION"`
	DefaultTenantID         string   `mapstructure:"DEFAULT_TENANT_ID"`
	DocIDNamespace          string   `mapstructure:"DOC_ID_NAMESPACE"`
	StripControlChars       bool     `mapstructure:"STRIP_CONTROL_CHARS"`
	RequiredFields          []string `mapstructure:"REQUIRED_FIELDS"`
	MaxAttributeBytes       int      `mapstructure:"MAX_ATTRIBUTE_BYTES"`
	RejectFutureTimestamps  bool     `mapstructure:"REJECT_FUTURE_TIMESTAMPS"`
	MaxPayloadBytes         int      `mapstructure:"MAX_PAYLOAD_BYTES"`
	MaxNormalizedBytes      int      `mapstructure:"MAX_NORMALIZED_BYTES"`
}

// CanonicalConfig governs C2 canonicalization.
type CanonicalConfig struct {
	Version          int  `mapstructure:"VERSION"`
	NormalizeUnicode bool `mapstructure:"NORMALIZE_UNICODE"`
	StripPunctuation bool `mapstructure:"STRIP_PUNCTUATION"`
	Lowercase        bool `mapstructure:"LOWERCASE"`
}

// PerceptualConfig governs C3 shingling/winnowing/MinHash.
type PerceptualConfig struct {
	Version              int    `mapstructure:"VERSION"`
	K                    int    `mapstructure:"K"`
	W                    int    `mapstructure:"W"`
	Bands                int    `mapstructure:"BANDS"`
	RowsPerBand          int    `mapstructure:"ROWS_PER_BAND"`
	Seed                 uint64 `mapstructure:"SEED"`
	UseParallel          bool   `mapstructure:"USE_PARALLEL"`
	IncludeIntermediates bool   `mapstructure:"INCLUDE_INTERMEDIATES"`
}

// SemanticConfig governs C4 embedding.
type SemanticConfig struct {
	Tier               string        `mapstructure:"TIER"`
	Mode               string        `mapstructure:"MODE"`
	ModelName          string        `mapstructure:"MODEL_NAME"`
	ModelPath          string        `mapstructure:"MODEL_PATH"`
	TokenizerPath      string        `mapstructure:"TOKENIZER_PATH"`
	ModelURL           string        `mapstructure:"MODEL_URL"`
	TokenizerURL       string        `mapstructure:"TOKENIZER_URL"`
	APIURL             string        `mapstructure:"API_URL"`
	APIAuthHeader      string        `mapstructure:"API_AUTH_HEADER"`
	APIProvider        string        `mapstructure:"API_PROVIDER"`
	APITimeout         time.Duration `mapstructure:"API_TIMEOUT_SECS"`
	Normalize          bool          `mapstructure:"NORMALIZE"`
	Device             string        `mapstructure:"DEVICE"`
	EmbeddingDim       int           `mapstructure:"EMBEDDING_DIM"`
	MaxSequenceLength  int           `mapstructure:"MAX_SEQUENCE_LENGTH"`
	EnableChunking     bool          `mapstructure:"ENABLE_CHUNKING"`
	ChunkOverlapRatio  float64       `mapstructure:"CHUNK_OVERLAP_RATIO"`
	PoolingStrategy    string        `mapstructure:"POOLING_STRATEGY"`
	TokenSoftLimit     int           `mapstructure:"TOKEN_SOFT_LIMIT"`
	TokenTarget        int           `mapstructure:"TOKEN_TARGET"`
}

// AnnConfig governs the HNSW auxiliary index.
type AnnConfig struct {
	Enabled          bool `mapstructure:"ENABLED"`
	MinVectorsForAnn int  `mapstructure:"MIN_VECTORS_FOR_ANN"`
	M                int  `mapstructure:"M"`
	EfConstruction   int  `mapstructure:"EF_CONSTRUCTION"`
	EfSearch         int  `mapstructure:"EF_SEARCH"`
}

// IndexConfig governs C5 storage.
type IndexConfig struct {
	Backend            string  `mapstructure:"BACKEND"`
	PostgresDSN        string  `mapstructure:"POSTGRES_DSN"`
	Compression        string  `mapstructure:"COMPRESSION"`
	QuantizationScale  float64 `mapstructure:"QUANTIZATION_SCALE"`
	SchemaVersion      uint16  `mapstructure:"SCHEMA_VERSION"`
	Ann                AnnConfig
}

// MatcherConfig governs C6 default behavior absent a per-request override.
type MatcherConfig struct {
	Mode             string  `mapstructure:"MODE"`
	MaxResults       int     `mapstructure:"MAX_RESULTS"`
	TenantEnforce    bool    `mapstructure:"TENANT_ENFORCE"`
	OversampleFactor float64 `mapstructure:"OVERSAMPLE_FACTOR"`
	Explain          bool    `mapstructure:"EXPLAIN"`
	PolicyID         string  `mapstructure:"POLICY_ID"`
	PolicyVersion    int     `mapstructure:"POLICY_VERSION"`
}

// ResilienceConfig governs the shared circuit breaker / retry / rate limit.
type ResilienceConfig struct {
	MaxRetries            int           `mapstructure:"MAX_RETRIES"`
	RetryBaseDelay        time.Duration `mapstructure:"RETRY_BASE_DELAY_SECONDS"`
	RetryMaxDelay         time.Duration `mapstructure:"RETRY_MAX_DELAY_SECONDS"`
	RetryJitter           bool          `mapstructure:"RETRY_JITTER"`
	CircuitFailThreshold  int           `mapstructure:"CIRCUIT_FAIL_THRESHOLD"`
	CircuitResetTimeout   time.Duration `mapstructure:"CIRCUIT_RESET_TIMEOUT_SECONDS"`
	RateLimitPerSecond    float64       `mapstructure:"RATE_LIMIT_PER_SECOND"`
	RateLimitBurst        int           `mapstructure:"RATE_LIMIT_BURST"`
}

// Config is the root configuration object for the fingerprinting core.
type Config struct {
	Ingest     IngestConfig
	Canonical  CanonicalConfig
	Perceptual PerceptualConfig
	Semantic   SemanticConfig
	Index      IndexConfig
	Matcher    MatcherConfig
	Resilience ResilienceConfig
}

// Load reads config.yaml (if present) plus environment overrides, applying
// defaults for every tunable named by the configuration surface, then
// unmarshals into a Config. Mirrors the teacher's viper bootstrap sequence.
func Load(logger *zap.Logger) *Config {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("../")
	v.AddConfigPath("./config")
	v.AutomaticEnv()

	v.SetDefault("INGEST.VERSION", 1)
	v.SetDefault("INGEST.DEFAULT_TENANT_ID", "default")
	v.SetDefault("INGEST.DOC_ID_NAMESPACE", "6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	v.SetDefault("INGEST.STRIP_CONTROL_CHARS", true)
	v.SetDefault("INGEST.REQUIRED_FIELDS", []string{})
	v.SetDefault("INGEST.MAX_ATTRIBUTE_BYTES", 65536)
	v.SetDefault("INGEST.REJECT_FUTURE_TIMESTAMPS", false)
	v.SetDefault("INGEST.MAX_PAYLOAD_BYTES", 10*1024*1024)
	v.SetDefault("INGEST.MAX_NORMALIZED_BYTES", 5*1024*1024)

	v.SetDefault("CANONICAL.VERSION", 1)
	v.SetDefault("CANONICAL.NORMALIZE_UNICODE", true)
	v.SetDefault("CANONICAL.STRIP_PUNCTUATION", false)
	v.SetDefault("CANONICAL.LOWERCASE", true)

	v.SetDefault("PERCEPTUAL.VERSION", 1)
	v.SetDefault("PERCEPTUAL.K", 5)
	v.SetDefault("PERCEPTUAL.W", 4)
	v.SetDefault("PERCEPTUAL.BANDS", 16)
	v.SetDefault("PERCEPTUAL.ROWS_PER_BAND", 8)
	v.SetDefault("PERCEPTUAL.SEED", 42)
	v.SetDefault("PERCEPTUAL.USE_PARALLEL", false)
	v.SetDefault("PERCEPTUAL.INCLUDE_INTERMEDIATES", false)

	v.SetDefault("SEMANTIC.TIER", "fast")
	v.SetDefault("SEMANTIC.MODE", "fast")
	v.SetDefault("SEMANTIC.EMBEDDING_DIM", 384)
	v.SetDefault("SEMANTIC.MAX_SEQUENCE_LENGTH", 512)
	v.SetDefault("SEMANTIC.ENABLE_CHUNKING", true)
	v.SetDefault("SEMANTIC.CHUNK_OVERLAP_RATIO", 0.17)
	v.SetDefault("SEMANTIC.POOLING_STRATEGY", "mean")
	v.SetDefault("SEMANTIC.NORMALIZE", true)
	v.SetDefault("SEMANTIC.API_TIMEOUT_SECS", 30)
	v.SetDefault("SEMANTIC.TOKEN_SOFT_LIMIT", 480)
	v.SetDefault("SEMANTIC.TOKEN_TARGET", 420)

	v.SetDefault("INDEX.BACKEND", "in_memory")
	v.SetDefault("INDEX.COMPRESSION", "none")
	v.SetDefault("INDEX.QUANTIZATION_SCALE", 100.0)
	v.SetDefault("INDEX.SCHEMA_VERSION", 1)
	v.SetDefault("INDEX.ANN.ENABLED", true)
	v.SetDefault("INDEX.ANN.MIN_VECTORS_FOR_ANN", 1000)
	v.SetDefault("INDEX.ANN.M", 16)
	v.SetDefault("INDEX.ANN.EF_CONSTRUCTION", 200)
	v.SetDefault("INDEX.ANN.EF_SEARCH", 50)

	v.SetDefault("MATCHER.MODE", "hybrid")
	v.SetDefault("MATCHER.MAX_RESULTS", 10)
	v.SetDefault("MATCHER.TENANT_ENFORCE", true)
	v.SetDefault("MATCHER.OVERSAMPLE_FACTOR", 2.0)
	v.SetDefault("MATCHER.EXPLAIN", false)

	v.SetDefault("RESILIENCE.MAX_RETRIES", 5)
	v.SetDefault("RESILIENCE.RETRY_BASE_DELAY_SECONDS", 1)
	v.SetDefault("RESILIENCE.RETRY_MAX_DELAY_SECONDS", 30)
	v.SetDefault("RESILIENCE.RETRY_JITTER", true)
	v.SetDefault("RESILIENCE.CIRCUIT_FAIL_THRESHOLD", 5)
	v.SetDefault("RESILIENCE.CIRCUIT_RESET_TIMEOUT_SECONDS", 30)
	v.SetDefault("RESILIENCE.RATE_LIMIT_PER_SECOND", 10.0)
	v.SetDefault("RESILIENCE.RATE_LIMIT_BURST", 20)

	if err := v.ReadInConfig(); err != nil {
		if logger != nil {
			logger.Warn("could not read config file, using defaults/env vars", zap.Error(err))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		if logger != nil {
			logger.Fatal("unable to decode config into struct", zap.Error(err))
		} else {
			fmt.Fprintf(os.Stderr, "FATAL: unable to decode config into struct: %v\n", err)
			os.Exit(1)
		}
	}

	// Seconds configured as plain ints need conversion to time.Duration: a
	// plain integer decoded into a time.Duration field is a nanosecond count,
	// so each of these fields is multiplied by time.Second here and is read
	// as a whole number of seconds.
	cfg.Resilience.RetryBaseDelay = cfg.Resilience.RetryBaseDelay * time.Second
	cfg.Resilience.RetryMaxDelay = cfg.Resilience.RetryMaxDelay * time.Second
	cfg.Resilience.CircuitResetTimeout = cfg.Resilience.CircuitResetTimeout * time.Second
	cfg.Semantic.APITimeout = cfg.Semantic.APITimeout * time.Second

	return &cfg
}
