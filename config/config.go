package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

type Config struct {
	TelegramToken string
	AnimalsFile   string // YAML-каталог животных, пустой путь для встроенного
	StickerFile   string // стикер приветствия, можно не задавать

	MonitorInterval    time.Duration
	MonitorReadTimeout time.Duration // ожидание кадра; 0 значит MonitorInterval
	MonitorMaxFailures int

	DetectorBackend   string  // "http" или "dnn"
	DetectorURL       string  // адрес HTTP-сервиса детекции
	DetectorThreshold float64 // минимальная уверенность объекта
	DetectorModel     string  // веса DNN для сборки с тегом gocv
	DetectorConfig    string
	DetectorLabels    string

	StreamBackend string // "ffmpeg" или "gocv"
	FFmpegPath    string
	YtDlpPath     string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	NowRateLimit  int
	NowRateWindow time.Duration

	DatabaseURL string
	HTTPAddr    string

	LogLevel  string
	LogFormat string

	ColorExpected   string
	ColorUnexpected string
}

func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	cfg := &Config{
		TelegramToken:   os.Getenv("TELEGRAM_TOKEN"),
		AnimalsFile:     os.Getenv("ANIMALS_FILE"),
		StickerFile:     os.Getenv("STICKER_FILE"),
		DetectorBackend: getEnv("DETECTOR_BACKEND", "http"),
		DetectorURL:     getEnv("DETECTOR_URL", "http://localhost:8090/detect"),
		DetectorModel:   os.Getenv("DETECTOR_MODEL"),
		DetectorConfig:  os.Getenv("DETECTOR_CONFIG"),
		DetectorLabels:  os.Getenv("DETECTOR_LABELS"),
		StreamBackend:   getEnv("STREAM_BACKEND", "ffmpeg"),
		FFmpegPath:      getEnv("FFMPEG_PATH", "ffmpeg"),
		YtDlpPath:       getEnv("YTDLP_PATH", "yt-dlp"),
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		HTTPAddr:        getEnv("HTTP_ADDR", ":9090"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "console"),
		ColorExpected:   getEnv("COLOR_EXPECTED", "#00ff00"),
		ColorUnexpected: getEnv("COLOR_UNEXPECTED", "#ff0000"),
	}

	var err error
	if cfg.MonitorInterval, err = getDuration("MONITOR_INTERVAL", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.MonitorReadTimeout, err = getDuration("MONITOR_READ_TIMEOUT", 0); err != nil {
		return nil, err
	}
	if cfg.MonitorMaxFailures, err = getInt("MONITOR_MAX_FAILURES", 30); err != nil {
		return nil, err
	}
	if cfg.DetectorThreshold, err = getFloat("DETECTOR_THRESHOLD", 0.9); err != nil {
		return nil, err
	}
	if cfg.RedisDB, err = getInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.NowRateLimit, err = getInt("NOW_RATE_LIMIT", 5); err != nil {
		return nil, err
	}
	if cfg.NowRateWindow, err = getDuration("NOW_RATE_WINDOW", time.Minute); err != nil {
		return nil, err
	}

	if cfg.MonitorInterval <= 0 {
		return nil, fmt.Errorf("MONITOR_INTERVAL must be positive, got %s", cfg.MonitorInterval)
	}
	if cfg.DetectorThreshold < 0 || cfg.DetectorThreshold > 1 {
		return nil, fmt.Errorf("DETECTOR_THRESHOLD must be within [0, 1], got %v", cfg.DetectorThreshold)
	}

	if cfg.MonitorReadTimeout < 0 {
		return nil, fmt.Errorf("MONITOR_READ_TIMEOUT must not be negative, got %s", cfg.MonitorReadTimeout)
	}
	if lvl, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel)); err != nil || lvl == zerolog.NoLevel {
		return nil, fmt.Errorf("unknown LOG_LEVEL %q", cfg.LogLevel)
	}
	switch strings.ToLower(cfg.LogFormat) {
	case "console", "json":
	default:
		return nil, fmt.Errorf("unknown LOG_FORMAT %q", cfg.LogFormat)
	}
	switch cfg.DetectorBackend {
	case "http", "dnn":
	default:
		return nil, fmt.Errorf("unknown DETECTOR_BACKEND %q", cfg.DetectorBackend)
	}
	switch cfg.StreamBackend {
	case "ffmpeg", "gocv":
	default:
		return nil, fmt.Errorf("unknown STREAM_BACKEND %q", cfg.StreamBackend)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, v, err)
	}
	return n, nil
}

func getFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, v, err)
	}
	return f, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, v, err)
	}
	return d, nil
}
