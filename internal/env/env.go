package env

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	AWSRegion            = "AWS_REGION"
	AWSID                = "AWS_ID"
	AWSSecret            = "AWS_SECRET"
	AWSToken             = "AWS_TOKEN"
	DynamoDBEndpoint     = "DYNAMODB_ENDPOINT"
	SecretsEndpoint      = "SECRETS_ENDPOINT"
	UserSecretKey        = "USER_SECRET"
	AuthRedisURL         = "AUTH_REDIS_URL"
	AuthRedisPass        = "AUTH_REDIS_PASS"
	ChatRedisURL         = "CHAT_REDIS_URL"
	ChatRedisPass        = "CHAT_REDIS_PASS"
	WebUrl               = "WEB_URL"
	AllowedOrigins       = "ALLOWED_ORIGINS"
	LogLevel             = "LOG_LEVEL"
	LLMBaseURL           = "LLM_BASE_URL"
	LLMAPIKey            = "LLM_API_KEY"
	LLMModel             = "LLM_MODEL"
	LLMMaxTokens         = "LLM_MAX_TOKENS"
	AgentContextTokens   = "AGENT_CONTEXT_TOKENS"
	AgentName            = "AGENT_NAME"
	BillingWebhookSecret = "BILLING_WEBHOOK_SECRET"
	VapiBaseURL          = "VAPI_BASE_URL"
	SessionDuration      = "SESSION_DURATION"
	SessionRefreshWindow = "SESSION_REFRESH_THRESHOLD"
	WidgetPublicURL      = "WIDGET_PUBLIC_URL"
	WidgetWebsocketURL   = "WIDGET_WS_URL"
)

// Base is the set of variables every server needs.
var Base = []string{
	AWSRegion,
	UserSecretKey,
	AuthRedisURL,
	ChatRedisURL,
	WebUrl,
}

// Load reads an optional .env file and then checks that every required key is set.
// Variables already present in the process environment win over the file.
func Load(required ...string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("env: load .env: %w", err)
	}

	var missing []string
	for _, key := range required {
		if os.Getenv(key) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("env: required environment variables not set: %s", strings.Join(missing, ", "))
	}
	return nil
}

func Get(key string) string {
	return os.Getenv(key)
}

func GetOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func GetInt(key string, defaultVal int) int {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func GetDuration(key string, defaultVal time.Duration) time.Duration {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}

// GetList splits a comma separated variable, dropping empty entries.
func GetList(key string, defaultVal []string) []string {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func MustGet(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic("env: required environment variable not set: " + key)
	}
	return val
}
