package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
)

// Storage backends.
const (
	StorageMinIO = "minio"
	StorageGCS   = "gcs"
)

// Repository backends.
const (
	RepositoryPostgres  = "postgres"
	RepositoryFirestore = "firestore"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// FirestoreConfig holds the job collection location in Firestore.
type FirestoreConfig struct {
	ProjectID  string
	Collection string
}

// RepositoryConfig selects and configures the job metadata store.
type RepositoryConfig struct {
	Backend   string
	Firestore FirestoreConfig
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// GCSConfig holds object storage settings for Google Cloud Storage.
type GCSConfig struct {
	Bucket string
}

// StorageConfig selects and configures the object store.
type StorageConfig struct {
	Backend          string
	MinIO            MinIOConfig
	GCS              GCSConfig
	PresignExpirySec int
}

// PipelineConfig holds the redaction pipeline parameters.
type PipelineConfig struct {
	PageWidth        int
	PageHeight       int
	RenderDPI        float64
	OutputDPI        float64
	BlurSigma        float64
	Workers          int
	CompressionLevel int
}

// Validate reports every invalid pipeline parameter.
func (p PipelineConfig) Validate() error {
	var errs []error
	if p.PageWidth <= 0 || p.PageHeight <= 0 {
		errs = append(errs, fmt.Errorf("page size must be positive, got %dx%d", p.PageWidth, p.PageHeight))
	}
	if p.RenderDPI <= 0 {
		errs = append(errs, fmt.Errorf("render dpi must be positive, got %v", p.RenderDPI))
	}
	if p.OutputDPI <= 0 {
		errs = append(errs, fmt.Errorf("output dpi must be positive, got %v", p.OutputDPI))
	}
	if p.BlurSigma <= 0 {
		errs = append(errs, fmt.Errorf("blur sigma must be positive, got %v", p.BlurSigma))
	}
	if p.CompressionLevel < -2 || p.CompressionLevel > 9 {
		errs = append(errs, fmt.Errorf("compression level must be within [-2, 9], got %d", p.CompressionLevel))
	}
	return errors.Join(errs...)
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost        string
	Port           string
	TZLocation     string
	MaxUploadBytes int
	Database       DatabaseConfig
	Repository     RepositoryConfig
	Storage        StorageConfig
	Pipeline       PipelineConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost:        getEnv("APP_HOST", "localhost:8080"),
		Port:           getEnv("PORT", "8080"),
		TZLocation:     getEnv("TZ_LOCATION", "UTC"),
		MaxUploadBytes: getEnvInt("MAX_UPLOAD_BYTES", 50<<20),
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		Repository: RepositoryConfig{
			Backend: getEnv("REPOSITORY_BACKEND", RepositoryPostgres),
			Firestore: FirestoreConfig{
				ProjectID:  getEnv("FIRESTORE_PROJECT_ID", ""),
				Collection: getEnv("FIRESTORE_COLLECTION", "jobs"),
			},
		},
		Storage: StorageConfig{
			Backend: getEnv("STORAGE_BACKEND", StorageMinIO),
			MinIO: MinIOConfig{
				Endpoint:  getEnv("MINIO_ENDPOINT", ""),
				AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
				SecretKey: getEnv("MINIO_SECRET_KEY", ""),
				Bucket:    getEnv("MINIO_BUCKET", ""),
				UseSSL:    getEnvBool("MINIO_USE_SSL", false),
			},
			GCS: GCSConfig{
				Bucket: getEnv("GCS_BUCKET", ""),
			},
			PresignExpirySec: getEnvInt("PRESIGN_EXPIRY_SEC", 900),
		},
		Pipeline: PipelineConfig{
			PageWidth:        getEnvInt("PAGE_WIDTH", 2480),
			PageHeight:       getEnvInt("PAGE_HEIGHT", 3508),
			RenderDPI:        getEnvFloat("RENDER_DPI", 300),
			OutputDPI:        getEnvFloat("OUTPUT_DPI", 300),
			BlurSigma:        getEnvFloat("BLUR_SIGMA", 12),
			Workers:          getEnvInt("PIPELINE_WORKERS", 0),
			CompressionLevel: getEnvInt("PDF_COMPRESSION_LEVEL", 6),
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return def
}
