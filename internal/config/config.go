package config // package config loads application configuration from environment variables

import (
	"encoding/hex"
	"log"
	"os"
	"strconv"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Secrets and identifiers are strings; durations
// and costs are ints reflecting how they are used in the application.
type Config struct {
	Env            string // application environment (e.g. "dev", "prod")
	Port           string // HTTP port to listen on
	DBUser         string // database username
	DBPass         string // database password (optional)
	DBHost         string // database host address
	DBPort         string // database port number
	DBName         string // database name
	JWTSecret      string // secret used to sign JWTs
	AccessTTLMin   int    // access token time-to-live in minutes
	RefreshTTLDays int    // refresh token time-to-live in days
	BcryptCost     int    // bcrypt cost for password hashing

	// CredentialKey seals per-operator Pretix API keys at rest.  It is a
	// 32-byte key supplied as 64 hex characters in CREDENTIAL_KEY.
	CredentialKey []byte

	// Process-wide default Pretix credentials.  Used whenever an operator
	// has no active credential record of their own.  All three may be empty;
	// upstream calls then fail with a clear gateway error instead of a crash.
	PretixURL       string // upstream API base URL, e.g. https://pretix.example.com/api/v1/
	PretixKey       string // upstream API token
	PretixOrganizer string // upstream organizer identifier
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	return Config{
		Env:             must("APP_ENV"),
		Port:            must("APP_PORT"),
		DBUser:          must("DB_USER"),
		DBPass:          os.Getenv("DB_PASS"), // empty allowed
		DBHost:          must("DB_HOST"),
		DBPort:          must("DB_PORT"),
		DBName:          must("DB_NAME"),
		JWTSecret:       must("JWT_SECRET"),
		AccessTTLMin:    mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays:  mustInt("REFRESH_TOKEN_TTL_DAYS"),
		BcryptCost:      mustInt("BCRYPT_COST"),
		CredentialKey:   mustHexKey("CREDENTIAL_KEY"),
		PretixURL:       os.Getenv("PRETIX_API_URL"),
		PretixKey:       os.Getenv("PRETIX_API_KEY"),
		PretixOrganizer: os.Getenv("PRETIX_ORGANIZER"),
	}
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

// mustHexKey decodes a required hex-encoded 32-byte key.
func mustHexKey(key string) []byte {
	s := must(key)
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != 32 {
		log.Fatalf("invalid key for %s: want 64 hex chars", key)
	}
	return b
}
