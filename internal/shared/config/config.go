package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration.
type Config struct {
	Port            string
	CORSAllowOrigin []string
	ObjectStoreType string
	LocalStoreDir   string
	AWSRegion       string
	SSEKMSKeyID     string
	DatabaseURL     string
	Env             string
	QueueURL        string
	UploadsBucket   string
	UploadsPrefix   string
	BDA             BDAConfig
}

// BDAConfig carries the data automation defaults applied to every run.
type BDAConfig struct {
	ProjectName        string
	ProjectDescription string
	ProjectStage       string
	ProjectARN         string
	BlueprintName      string
	ProfileARN         string
	InputURI           string
	OutputURI          string
	ResultPrefix       string
	ResultFormat       string
	MediaHint          string
	PollInterval       time.Duration
	PollMaxAttempts    int
	PollTimeout        time.Duration
	EmptyListPolicy    string
}

const (
	defaultProjectName        = "BedrockDataAutomationProject"
	defaultProjectDescription = "Bedrock Data Automation (BDA) project"
	defaultBlueprintName      = "Advertisement"
	defaultPollInterval       = 10 * time.Second
	defaultPollMaxAttempts    = 360
)

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")

	if env == "production" && dbURL == "" {
		log.Printf("DATABASE_URL is required in production")
	}

	return Config{
		Port:            getEnv("PORT", "8080"),
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		ObjectStoreType: normalizeStoreType(getEnv("OBJECT_STORE", "s3")),
		LocalStoreDir:   getEnv("LOCAL_STORE_DIR", "./data"),
		AWSRegion:       getEnv("AWS_REGION", "us-east-1"),
		SSEKMSKeyID:     getEnv("SSE_KMS_KEY_ID", ""),
		DatabaseURL:     dbURL,
		Env:             env,
		QueueURL:        strings.TrimSpace(os.Getenv("RA_SQS_QUEUE_URL")),
		UploadsBucket:   strings.TrimSpace(os.Getenv("UPLOADS_S3_BUCKET")),
		UploadsPrefix:   getEnv("UPLOADS_S3_PREFIX", "input/"),
		BDA: BDAConfig{
			ProjectName:        getEnv("BDA_PROJECT_NAME", defaultProjectName),
			ProjectDescription: getEnv("BDA_PROJECT_DESCRIPTION", defaultProjectDescription),
			ProjectStage:       NormalizeStage(getEnv("BDA_PROJECT_STAGE", "LIVE")),
			ProjectARN:         getEnv("BDA_PROJECT_ARN", ""),
			BlueprintName:      getEnv("BDA_BLUEPRINT_NAME", defaultBlueprintName),
			ProfileARN:         getEnv("BDA_PROFILE_ARN", ""),
			InputURI:           getEnv("BDA_INPUT_URI", ""),
			OutputURI:          getEnv("BDA_OUTPUT_URI", ""),
			ResultPrefix:       getEnv("BDA_RESULT_PREFIX", ""),
			ResultFormat:       NormalizeResultFormat(getEnv("BDA_RESULT_FORMAT", "parquet")),
			MediaHint:          NormalizeMediaHint(getEnv("BDA_MEDIA_HINT", "")),
			PollInterval:       getEnvDuration("BDA_POLL_INTERVAL", defaultPollInterval),
			PollMaxAttempts:    getEnvInt("BDA_POLL_MAX_ATTEMPTS", defaultPollMaxAttempts),
			PollTimeout:        getEnvDuration("BDA_POLL_TIMEOUT", 0),
			EmptyListPolicy:    NormalizeEmptyListPolicy(getEnv("BDA_EMPTY_LIST_POLICY", "keep")),
		},
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("config env %s invalid int: %v", key, err)
		return def
	}
	return val
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("config env %s invalid duration: %v", key, err)
		return def
	}
	return val
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "local":
		return "local"
	default:
		return "s3"
	}
}

// NormalizeStage maps user input onto a project stage (LIVE or DEVELOPMENT).
func NormalizeStage(raw string) string {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "DEVELOPMENT", "DEV":
		return "DEVELOPMENT"
	default:
		return "LIVE"
	}
}

// NormalizeResultFormat returns parquet or xlsx.
func NormalizeResultFormat(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "xlsx", "excel":
		return "xlsx"
	default:
		return "parquet"
	}
}

// NormalizeMediaHint returns image, video, or "" when unknown.
func NormalizeMediaHint(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "image", "img":
		return "image"
	case "video":
		return "video"
	default:
		return ""
	}
}

// NormalizeEmptyListPolicy returns keep or drop.
func NormalizeEmptyListPolicy(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "drop":
		return "drop"
	default:
		return "keep"
	}
}
