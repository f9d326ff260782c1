package config

import (
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/cors"
)

type S3Config struct {
	AccountID       string `envconfig:"S3_ACCOUNT_ID"`
	AccessKeyID     string `envconfig:"S3_ACCESS_KEY_ID"`
	SecretAccessKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	BucketName      string `envconfig:"S3_BUCKET_NAME"`
	Region          string `envconfig:"S3_REGION" default:"auto"`
}

type UploadConfig struct {
	// Field is the form field name the widget posts files under.
	Field string `envconfig:"UPLOAD_FIELD" default:"file"`
	// Folder is the asset store prefix completed uploads are stored under.
	Folder string `envconfig:"UPLOAD_FOLDER" default:"uploads"`
	// MaxFileSize accepts human sizes such as "5MB". Zero means unlimited.
	MaxFileSize string `envconfig:"MAX_FILE_SIZE" default:"100MB"`
	// MaxFiles caps the number of files attached to one object. Zero means unlimited.
	MaxFiles int `envconfig:"MAX_FILES"`
	// AllowedExtensions is a comma separated allow-list. Empty allows everything.
	AllowedExtensions []string `envconfig:"ALLOWED_EXTENSIONS"`
	// RenamePattern, when set, rewrites uploaded filenames. See upload.ChangeFilenameWithPattern.
	RenamePattern string `envconfig:"RENAME_PATTERN"`
	// ChunkDir is the intermediate directory holding range blobs of chunked transfers.
	ChunkDir string `envconfig:"CHUNK_DIR" default:"chunks"`
	// SweepOnUpload runs a bounded retention sweep after each successful upload.
	SweepOnUpload bool `envconfig:"SWEEP_ON_UPLOAD" default:"true"`
	// SweepThreshold overrides the retention threshold. Zero picks the
	// environment default (10m in development, 24h otherwise).
	SweepThreshold time.Duration `envconfig:"SWEEP_THRESHOLD"`
	// SweepLimit bounds how many rows a single sweep touches.
	SweepLimit int `envconfig:"SWEEP_LIMIT" default:"100"`
}

// MaxFileSizeBytes parses MaxFileSize, returning 0 for unlimited.
func (u UploadConfig) MaxFileSizeBytes() int64 {
	if u.MaxFileSize == "" || u.MaxFileSize == "0" {
		return 0
	}
	n, err := humanize.ParseBytes(u.MaxFileSize)
	if err != nil {
		log.Warn("Invalid MAX_FILE_SIZE, uploads are unlimited", "value", u.MaxFileSize, "err", err)
		return 0
	}
	return int64(n)
}

type Config struct {
	DBURL       string `envconfig:"DB_URL"`
	Port        string `envconfig:"PORT" default:"8080"`
	JWTSecret   string `envconfig:"JWT_SECRET" default:"not-so-secret-now-is-it?"`
	Environment string `envconfig:"ENV" default:"development"`
	// StorageBackend selects the permanent asset store: "s3" or "local".
	StorageBackend string `envconfig:"STORAGE_BACKEND" default:"local"`
	// LocalStorageDir is the root of the local asset store.
	LocalStorageDir string `envconfig:"LOCAL_STORAGE_DIR" default:"storage"`
	// SessionDir is where the badger session keystore lives.
	SessionDir string `envconfig:"SESSION_DIR" default:"sessions"`
	Upload     UploadConfig
	S3         S3Config
	CorsConfig cors.Options `ignored:"true"`
}

// Development reports whether we run with development retention defaults.
func (c Config) Development() bool {
	return c.Environment == "development"
}

var Envs = initConfig()

func initConfig() Config {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		log.Debug("No env file found", "file", envFile)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatal("Failed to parse environment", "err", err)
	}
	cfg.CorsConfig = CorsConfig()
	return cfg
}

func CorsConfig() cors.Options {
	return cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodHead, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Upload-Offset"},
		AllowCredentials: true,
	}
}
