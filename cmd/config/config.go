package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	RabbitMQ    RabbitMQConfig
	Auth        AuthConfig
	Internal    InternalConfig
	Mpesa       MpesaConfig
}

type ServerConfig struct {
	Port           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type RabbitMQConfig struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
}

type AuthConfig struct {
	JWTSecret      string
	JWTExpiration  time.Duration
	SessionExpTime time.Duration
}

// InternalConfig is used by the reconcile consumer to reach the internal API.
type InternalConfig struct {
	APIKey string
	APIURL string
}

// VerifyCredentialsPolicy selects which password/timestamp pair a status query uses.
type VerifyCredentialsPolicy string

const (
	// VerifyCredentialsEcho reuses the pair produced at initiation.
	VerifyCredentialsEcho VerifyCredentialsPolicy = "echo"
	// VerifyCredentialsFresh derives a new pair for every query.
	VerifyCredentialsFresh VerifyCredentialsPolicy = "fresh"
)

type MpesaConfig struct {
	ConsumerKey       string
	ConsumerSecret    string
	Passkey           string
	ShortCode         string
	OAuthURL          string
	OnlineEndpoint    string
	QueryEndpoint     string
	CallbackURL       string
	AccountReference  string
	TransactionDesc   string
	TimestampLocation string
	HTTPTimeout       time.Duration
	TokenRetries      int
	ReconcileDelay    time.Duration
	VerifyCredentials VerifyCredentialsPolicy
	// PushLimit caps STK pushes per phone number within PushWindow; 0 disables it.
	PushLimit         int
	PushWindow        time.Duration
}

// Load reads the configuration from the environment. A .env file in the working
// directory is loaded first when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Port:           getEnv("PORT", "5000"),
			ReadTimeout:    getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:   getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:    getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 3306),
			User:            getEnv("DB_USER", "root"),
			Password:        getEnv("DB_PASSWORD", ""),
			Name:            getEnv("DB_NAME", "event_ticket"),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		RabbitMQ: RabbitMQConfig{
			Enabled:  getEnvAsBool("RABBITMQ_ENABLED", false),
			Host:     getEnv("RABBITMQ_HOST", "localhost"),
			Port:     getEnvAsInt("RABBITMQ_PORT", 5672),
			User:     getEnv("RABBITMQ_USER", "guest"),
			Password: getEnv("RABBITMQ_PASSWORD", "guest"),
		},
		Auth: AuthConfig{
			JWTSecret:      getEnv("JWT_SECRET", ""),
			JWTExpiration:  getEnvAsDuration("JWT_EXPIRATION", time.Hour),
			SessionExpTime: getEnvAsDuration("SESSION_EXPIRATION", time.Hour),
		},
		Internal: InternalConfig{
			APIKey: getEnv("INTERNAL_API_KEY", ""),
			APIURL: getEnv("INTERNAL_API_URL", "http://localhost:5000"),
		},
		Mpesa: MpesaConfig{
			ConsumerKey:       getEnv("CONSUMER_KEY", ""),
			ConsumerSecret:    getEnv("CONSUMER_SECRET", ""),
			Passkey:           getEnv("LIPA_NA_MPESA_PASSKEY", ""),
			ShortCode:         getEnv("SHORTCODE", ""),
			OAuthURL:          getEnv("MPESA_OAUTH_URL", "https://sandbox.safaricom.co.ke/oauth/v1/generate?grant_type=client_credentials"),
			OnlineEndpoint:    getEnv("LIPA_NA_MPESA_ONLINE_ENDPOINT", ""),
			QueryEndpoint:     getEnv("LIPA_NA_MPESA_QUERY_ENDPOINT", ""),
			CallbackURL:       getEnv("MPESA_CALLBACK_URL", ""),
			AccountReference:  getEnv("MPESA_ACCOUNT_REFERENCE", "EventTicket"),
			TransactionDesc:   getEnv("MPESA_TRANSACTION_DESC", "Event ticket payment"),
			TimestampLocation: getEnv("MPESA_TIMESTAMP_LOCATION", "Africa/Nairobi"),
			HTTPTimeout:       getEnvAsDuration("MPESA_HTTP_TIMEOUT", 15*time.Second),
			TokenRetries:      getEnvAsInt("MPESA_TOKEN_RETRIES", 3),
			ReconcileDelay:    getEnvAsDuration("MPESA_RECONCILE_DELAY", 2*time.Minute),
			VerifyCredentials: VerifyCredentialsPolicy(getEnv("MPESA_VERIFY_CREDENTIALS", string(VerifyCredentialsEcho))),
			PushLimit:         getEnvAsInt("MPESA_PUSH_LIMIT", 3),
			PushWindow:        getEnvAsDuration("MPESA_PUSH_WINDOW", time.Minute),
		},
	}
}

// Validate reports every required setting that is missing so the process can
// stop at startup instead of failing on the first payment.
func (c *Config) Validate() error {
	required := map[string]string{
		"JWT_SECRET":                    c.Auth.JWTSecret,
		"CONSUMER_KEY":                  c.Mpesa.ConsumerKey,
		"CONSUMER_SECRET":               c.Mpesa.ConsumerSecret,
		"LIPA_NA_MPESA_PASSKEY":         c.Mpesa.Passkey,
		"SHORTCODE":                     c.Mpesa.ShortCode,
		"MPESA_OAUTH_URL":               c.Mpesa.OAuthURL,
		"LIPA_NA_MPESA_ONLINE_ENDPOINT": c.Mpesa.OnlineEndpoint,
		"LIPA_NA_MPESA_QUERY_ENDPOINT":  c.Mpesa.QueryEndpoint,
		"MPESA_CALLBACK_URL":            c.Mpesa.CallbackURL,
	}

	missing := make([]string, 0)
	for _, key := range sortedKeys(required) {
		if strings.TrimSpace(required[key]) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required config: %s", strings.Join(missing, ", "))
	}

	switch c.Mpesa.VerifyCredentials {
	case VerifyCredentialsEcho, VerifyCredentialsFresh:
	default:
		return fmt.Errorf("invalid MPESA_VERIFY_CREDENTIALS %q", c.Mpesa.VerifyCredentials)
	}

	if _, err := time.LoadLocation(c.Mpesa.TimestampLocation); err != nil {
		return fmt.Errorf("invalid MPESA_TIMESTAMP_LOCATION: %w", err)
	}

	return nil
}

// GetDSN builds the MySQL DSN for sqlx.
func (c *Config) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&loc=UTC",
		c.Database.User, c.Database.Password, c.Database.Host, c.Database.Port, c.Database.Name)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue
	}
	items := make([]string, 0)
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
