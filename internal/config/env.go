package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port      string
	LogLevel  string
	LogFormat string
	JWTSecret string

	// extraction cache
	CacheBackend string
	CacheDir     string
	CachePrefix  string
	DatabaseURL  string
	SslCertPath  string
	AwsAccessKey string
	AwsSecretKey string
	AwsRegion    string
	BucketName   string

	// rasterizer + OCR
	RasterDPI         int
	RasterMaxWidth    int
	OCREngine         string
	OCRLanguage       string
	OCRWorkers        int
	OCRContrast       float64
	TextLayerFallback bool

	// chunker
	ChunkMinWords int
	ChunkMaxWords int

	// embeddings + ranking
	EmbedProvider     string
	EmbedModel        string
	EmbedMaxTokens    int
	EmbedCacheSize    int
	EmbedWorkers      int
	OpenAIAPIKey      string
	OpenAIBaseURL     string
	AIAPIKey          string
	GenModel          string
	RankMinSimilarity float64
	RankTopK          int

	IngestWorkers int
}

// LoadConfig loads the environment variables and return config
func LoadConfig() *Config {

	_ = godotenv.Load()

	cfg := &Config{
		Port:      getEnv("PORT", "8080"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
		JWTSecret: getEnv("JWT_SECRET", ""),

		CacheBackend: getEnv("CACHE_BACKEND", "disk"),
		CacheDir:     getEnv("CACHE_DIR", defaultCacheDir()),
		CachePrefix:  getEnv("CACHE_PREFIX", "extractions/"),
		DatabaseURL:  getEnv("DATABASE_URL", ""),
		SslCertPath:  getEnv("SSL_CERT_PATH", ""),
		AwsAccessKey: getEnv("AWS_ACCESS_KEY", ""),
		AwsSecretKey: getEnv("AWS_SECRET_KEY", ""),
		AwsRegion:    getEnv("AWS_REGION", "us-east-2"),
		BucketName:   getEnv("BUCKET_NAME", "docsense-cache"),

		RasterDPI:         getEnvInt("RASTER_DPI", 300),
		RasterMaxWidth:    getEnvInt("RASTER_MAX_WIDTH", 2550),
		OCREngine:         getEnv("OCR_ENGINE", "gosseract"),
		OCRLanguage:       getEnv("OCR_LANGUAGE", "eng"),
		OCRWorkers:        getEnvInt("OCR_WORKERS", 0),
		OCRContrast:       getEnvFloat("OCR_CONTRAST", 25),
		TextLayerFallback: getEnvBool("TEXT_LAYER_FALLBACK", false),

		ChunkMinWords: getEnvInt("CHUNK_MIN_WORDS", 5),
		ChunkMaxWords: getEnvInt("CHUNK_MAX_WORDS", 150),

		EmbedProvider:     getEnv("EMBED_PROVIDER", "gemini"),
		EmbedModel:        getEnv("EMBED_MODEL", ""),
		EmbedMaxTokens:    getEnvInt("EMBED_MAX_TOKENS", 512),
		EmbedCacheSize:    getEnvInt("EMBED_CACHE_SIZE", 1000),
		EmbedWorkers:      getEnvInt("EMBED_WORKERS", 8),
		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:     getEnv("OPENAI_BASE_URL", ""),
		AIAPIKey:          getEnv("GEMINI_API_KEY", ""),
		GenModel:          getEnv("GEN_MODEL", "gemini-2.0-flash-lite"),
		RankMinSimilarity: getEnvFloat("RANK_MIN_SIMILARITY", 0.3),
		RankTopK:          getEnvInt("RANK_TOP_K", 3),

		IngestWorkers: getEnvInt("INGEST_WORKERS", 2),
	}

	return cfg
}

// Validate reports the first setting that cannot be used.
func (c *Config) Validate() error {
	switch c.CacheBackend {
	case "disk":
		if c.CacheDir == "" {
			return fmt.Errorf("CACHE_DIR is empty")
		}
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL not set")
		}
	case "s3":
		if c.BucketName == "" {
			return fmt.Errorf("BUCKET_NAME not set")
		}
	default:
		return fmt.Errorf("unknown CACHE_BACKEND %q", c.CacheBackend)
	}

	switch c.OCREngine {
	case "gosseract", "cli":
	default:
		return fmt.Errorf("unknown OCR_ENGINE %q", c.OCREngine)
	}

	switch c.EmbedProvider {
	case "gemini", "openai":
	default:
		return fmt.Errorf("unknown EMBED_PROVIDER %q", c.EmbedProvider)
	}

	if c.RasterDPI < 72 {
		return fmt.Errorf("RASTER_DPI must be at least 72, got %d", c.RasterDPI)
	}
	if c.ChunkMinWords < 1 || c.ChunkMaxWords <= c.ChunkMinWords {
		return fmt.Errorf("chunk word bounds invalid: min=%d max=%d", c.ChunkMinWords, c.ChunkMaxWords)
	}
	if c.RankMinSimilarity < -1 || c.RankMinSimilarity > 1 {
		return fmt.Errorf("RANK_MIN_SIMILARITY must be within [-1, 1], got %v", c.RankMinSimilarity)
	}
	if c.RankTopK < 1 {
		return fmt.Errorf("RANK_TOP_K must be positive, got %d", c.RankTopK)
	}
	if c.EmbedCacheSize < 1 {
		return fmt.Errorf("EMBED_CACHE_SIZE must be positive, got %d", c.EmbedCacheSize)
	}
	return nil
}

func defaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "docsense")
}

// Helper to read environment variables with a default fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, def int) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("env value not an int, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

func getEnvFloat(key string, def float64) float64 {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		slog.Warn("env value not a number, using default", "key", key, "value", v, "default", def)
		return def
	}
	return f
}

func getEnvBool(key string, def bool) bool {
	v := strings.TrimSpace(getEnv(key, ""))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("env value not a bool, using default", "key", key, "value", v, "default", def)
		return def
	}
	return b
}
