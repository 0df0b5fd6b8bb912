package config

import (
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/reliefline/disaster-response-api/models"
)

// Config holds the project config values
type Config struct {
	URL          string
	DatabaseName string
	BaseURL      string
	Port         string
	Env          string
	JWTSecret    string

	// ReportThreshold is the number of linked reports at which an incident is validated
	ReportThreshold int
	// EnableBulkDelete allows DELETE /api/report and DELETE /api/incidents
	EnableBulkDelete bool

	CloudinaryURL    string
	CloudinaryFolder string

	MapsAPIKey           string
	GeocodeTimeout       time.Duration
	GeocodeRatePerSecond float64
	GeocodeRetrySchedule string

	ClassifierURL     string
	ClassifierTimeout time.Duration

	AMQPURL      string
	AMQPExchange string

	RequestTimeout time.Duration
}

// New sets up all config related services
func New() *Config {
	env := getEnv("APP_ENV", "local")

	//setup zap logger and replace default logger
	logger, err := setLogger(env)
	if err != nil {
		logger = zap.NewExample()
	}
	defer logger.Sync()
	_ = zap.ReplaceGlobals(logger)

	return &Config{
		URL:                  os.Getenv("DB_URI"),
		DatabaseName:         os.Getenv("DB_NAME"),
		BaseURL:              os.Getenv("BASE_URL"),
		Port:                 getEnv("PORT", "8080"),
		Env:                  env,
		JWTSecret:            os.Getenv("JWT_SECRET"),
		ReportThreshold:      getEnvInt("REPORT_THRESHOLD", 5),
		EnableBulkDelete:     getEnvBool("ENABLE_BULK_DELETE", false),
		CloudinaryURL:        os.Getenv("CLOUDINARY_URL"),
		CloudinaryFolder:     getEnv("CLOUDINARY_FOLDER", "disaster-reports"),
		MapsAPIKey:           os.Getenv("MAPS_API_KEY"),
		GeocodeTimeout:       getEnvDuration("GEOCODE_TIMEOUT", 5*time.Second),
		GeocodeRatePerSecond: getEnvFloat("GEOCODE_RATE_PER_SECOND", 10),
		GeocodeRetrySchedule: getEnv("GEOCODE_RETRY_SCHEDULE", "*/15 * * * *"),
		ClassifierURL:        os.Getenv("CLASSIFIER_URL"),
		ClassifierTimeout:    getEnvDuration("CLASSIFIER_TIMEOUT", 10*time.Second),
		AMQPURL:              os.Getenv("AMQP_URL"),
		AMQPExchange:         getEnv("AMQP_EXCHANGE", "incidents"),
		RequestTimeout:       getEnvDuration("REQUEST_TIMEOUT", 30*time.Second),
	}
}

// ErrorStatus is a useful function that will log, write http headers and body for a
// give message, status code and err
func ErrorStatus(message string, httpStatusCode int, w http.ResponseWriter, err error) {
	errMsg := ""
	if err != nil {
		errMsg = err.Error()
	}
	zap.S().Errorw(message, "status", httpStatusCode, "error", errMsg)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatusCode)
	b, _ := json.Marshal(models.ErrorMessageResponse{
		Response: models.MessageError{Message: message, Error: errMsg},
	})
	_, _ = w.Write(b)
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func getEnvFloat(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func getEnvBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
