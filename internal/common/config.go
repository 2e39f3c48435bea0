package common

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/joseph-ayodele/medreport/constants"
)

// Config holds all application configuration. The pipeline reads it and never mutates it.
type Config struct {
	App      AppConfig      `yaml:"app"`
	Database DatabaseConfig `yaml:"database"`
	Server   ServerConfig   `yaml:"server"`
	OCR      OCRConfig      `yaml:"ocr"`
	PDF      PDFConfig      `yaml:"pdf"`
	Files    FilesConfig    `yaml:"files"`
	Queue    QueueConfig    `yaml:"queue"`
}

type AppConfig struct {
	LogLevel  string `yaml:"log_level"`  // debug | info | warn | error
	LogFormat string `yaml:"log_format"` // json | text
}

// DatabaseConfig holds the optional job ledger connection. An empty DSN disables the ledger.
type DatabaseConfig struct {
	DSN              string        `yaml:"dsn"`
	MaxConns         int32         `yaml:"max_conns"`
	MinConns         int32         `yaml:"min_conns"`
	MaxConnLifetime  time.Duration `yaml:"max_conn_lifetime"`
	MaxConnIdleTime  time.Duration `yaml:"max_conn_idle_time"`
	DialTimeout      time.Duration `yaml:"dial_timeout"`
	StatementTimeout time.Duration `yaml:"statement_timeout"`
}

type ServerConfig struct {
	GRPCAddr string `yaml:"grpc_addr"`
	HTTPAddr string `yaml:"http_addr"`
}

type OCRConfig struct {
	Engine          string        `yaml:"engine"` // primary: tesseract | easyocr
	Language        string        `yaml:"language"`
	TesseractCmd    string        `yaml:"tesseract_cmd"`
	TessdataDir     string        `yaml:"tessdata_dir"`
	PSM             int           `yaml:"psm"`
	OEM             int           `yaml:"oem"`
	EasyOCREndpoint string        `yaml:"easyocr_endpoint"`
	PdftoppmCmd     string        `yaml:"pdftoppm_cmd"`
	DPI             int           `yaml:"dpi"`
	MaxPages        int           `yaml:"max_pages"`
	CallTimeout     time.Duration `yaml:"call_timeout"` // bound on each external engine call; 0 = none
	MinConfidence   float64       `yaml:"min_confidence"`
}

type PDFConfig struct {
	PdftotextCmd string `yaml:"pdftotext_cmd"`
	MinWords     int    `yaml:"min_words"`
}

type FilesConfig struct {
	MaxFileSizeMB     int      `yaml:"max_file_size_mb"`
	AllowedExtensions []string `yaml:"allowed_extensions"`
}

type QueueConfig struct {
	Workers    int           `yaml:"workers"`
	Size       int           `yaml:"size"`
	JobTimeout time.Duration `yaml:"job_timeout"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		App: AppConfig{LogLevel: "info", LogFormat: "text"},
		Database: DatabaseConfig{
			MaxConns:        20,
			MinConns:        5,
			MaxConnLifetime: 30 * time.Minute,
			MaxConnIdleTime: 5 * time.Minute,
			DialTimeout:     3 * time.Second,
		},
		Server: ServerConfig{GRPCAddr: ":8080", HTTPAddr: ":8081"},
		OCR: OCRConfig{
			Engine:        "tesseract",
			Language:      "eng",
			TesseractCmd:  "tesseract",
			PdftoppmCmd:   "pdftoppm",
			DPI:           300,
			CallTimeout:   2 * time.Minute,
			MinConfidence: 60,
		},
		PDF:   PDFConfig{PdftotextCmd: "pdftotext", MinWords: 30},
		Files: FilesConfig{MaxFileSizeMB: 20, AllowedExtensions: append([]string(nil), constants.DefaultAllowedExtensions...)},
		Queue: QueueConfig{Workers: 4, Size: 64, JobTimeout: 10 * time.Minute},
	}
}

// LoadConfig layers defaults, an optional YAML file and environment variables, in that order.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, NewAppError("CONFIG_ERROR", "read config file", err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, NewAppError("CONFIG_ERROR", "parse config file", err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.App.LogLevel = getEnv("LOG_LEVEL", c.App.LogLevel)
	c.App.LogFormat = getEnv("LOG_FORMAT", c.App.LogFormat)

	c.Database.DSN = getEnv("DB_URL", c.Database.DSN)
	c.Database.MaxConns = getEnvAsInt32("DB_MAX_CONNS", c.Database.MaxConns)
	c.Database.MinConns = getEnvAsInt32("DB_MIN_CONNS", c.Database.MinConns)
	c.Database.MaxConnLifetime = getEnvAsDuration("DB_MAX_CONN_LIFETIME", c.Database.MaxConnLifetime)
	c.Database.MaxConnIdleTime = getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", c.Database.MaxConnIdleTime)
	c.Database.DialTimeout = getEnvAsDuration("DB_DIAL_TIMEOUT", c.Database.DialTimeout)
	c.Database.StatementTimeout = getEnvAsDuration("DB_STATEMENT_TIMEOUT", c.Database.StatementTimeout)

	c.Server.GRPCAddr = getEnv("GRPC_ADDR", c.Server.GRPCAddr)
	c.Server.HTTPAddr = getEnv("HTTP_ADDR", c.Server.HTTPAddr)

	c.OCR.Engine = getEnv("OCR_ENGINE", c.OCR.Engine)
	c.OCR.Language = getEnv("OCR_LANGUAGE", c.OCR.Language)
	c.OCR.TesseractCmd = getEnv("TESSERACT_CMD", c.OCR.TesseractCmd)
	c.OCR.TessdataDir = getEnv("TESSDATA_PREFIX", c.OCR.TessdataDir)
	c.OCR.PSM = getEnvAsInt("TESSERACT_PSM", c.OCR.PSM)
	c.OCR.OEM = getEnvAsInt("TESSERACT_OEM", c.OCR.OEM)
	c.OCR.EasyOCREndpoint = getEnv("EASYOCR_URL", c.OCR.EasyOCREndpoint)
	c.OCR.PdftoppmCmd = getEnv("PDFTOPPM_CMD", c.OCR.PdftoppmCmd)
	c.OCR.DPI = getEnvAsInt("OCR_DPI", c.OCR.DPI)
	c.OCR.MaxPages = getEnvAsInt("OCR_MAX_PAGES", c.OCR.MaxPages)
	c.OCR.CallTimeout = getEnvAsDuration("OCR_CALL_TIMEOUT", c.OCR.CallTimeout)
	c.OCR.MinConfidence = getEnvAsFloat64("OCR_MIN_CONFIDENCE", c.OCR.MinConfidence)

	c.PDF.PdftotextCmd = getEnv("PDFTOTEXT_CMD", c.PDF.PdftotextCmd)
	c.PDF.MinWords = getEnvAsInt("PDF_MIN_WORDS", c.PDF.MinWords)

	c.Files.MaxFileSizeMB = getEnvAsInt("MAX_FILE_SIZE_MB", c.Files.MaxFileSizeMB)
	c.Files.AllowedExtensions = getEnvAsList("ALLOWED_EXTENSIONS", c.Files.AllowedExtensions)

	c.Queue.Workers = getEnvAsInt("QUEUE_WORKERS", c.Queue.Workers)
	c.Queue.Size = getEnvAsInt("QUEUE_SIZE", c.Queue.Size)
	c.Queue.JobTimeout = getEnvAsDuration("QUEUE_JOB_TIMEOUT", c.Queue.JobTimeout)
}

// MaxFileSizeBytes converts the MB limit.
func (c FilesConfig) MaxFileSizeBytes() int64 {
	return int64(c.MaxFileSizeMB) << 20
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := constants.NormalizeExt(strings.TrimSpace(part)); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	var errs []error
	switch c.OCR.Engine {
	case "tesseract", "easyocr":
	default:
		errs = append(errs, fmt.Errorf("OCR_ENGINE must be tesseract or easyocr, got %q", c.OCR.Engine))
	}
	if c.OCR.Engine == "easyocr" && c.OCR.EasyOCREndpoint == "" {
		errs = append(errs, errors.New("EASYOCR_URL is required when OCR_ENGINE=easyocr"))
	}
	if c.OCR.DPI <= 0 {
		errs = append(errs, errors.New("OCR_DPI must be positive"))
	}
	if c.OCR.MinConfidence < 0 || c.OCR.MinConfidence > 100 {
		errs = append(errs, errors.New("OCR_MIN_CONFIDENCE must be within 0-100"))
	}
	if c.PDF.MinWords <= 0 {
		errs = append(errs, errors.New("PDF_MIN_WORDS must be positive"))
	}
	if c.Files.MaxFileSizeMB <= 0 {
		errs = append(errs, errors.New("MAX_FILE_SIZE_MB must be positive"))
	}
	if len(c.Files.AllowedExtensions) == 0 {
		errs = append(errs, errors.New("ALLOWED_EXTENSIONS must not be empty"))
	}
	for _, ext := range c.Files.AllowedExtensions {
		if constants.MapExtToFormat(ext) == "" {
			errs = append(errs, fmt.Errorf("extension %q is not a supported document type", ext))
		}
	}
	if c.Queue.Workers <= 0 || c.Queue.Size <= 0 {
		errs = append(errs, errors.New("QUEUE_WORKERS and QUEUE_SIZE must be positive"))
	}
	if len(errs) > 0 {
		return NewAppError("CONFIG_ERROR", "invalid configuration", errors.Join(errs...))
	}
	return nil
}

// ValidateServer additionally checks what the daemon needs.
func (c *Config) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Server.GRPCAddr == "" && c.Server.HTTPAddr == "" {
		return NewAppError("CONFIG_ERROR", "GRPC_ADDR or HTTP_ADDR is required", ErrInvalidInput)
	}
	return nil
}
