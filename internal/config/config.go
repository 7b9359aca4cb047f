package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
)

// Config holds all runtime configuration values. Each field corresponds
// to an environment variable. The types reflect how the values are used
// in the application: strings for identifiers and secrets, ints for
// durations and costs.
type Config struct {
	Env            string // application environment (e.g. "dev", "prod")
	Port           string // HTTP port to listen on
	DBUser         string // database username
	DBPass         string // database password (optional)
	DBHost         string // database host address
	DBPort         string // database port number
	DBName         string // database name
	JWTSecret      string // secret used to sign JWTs; startup fails without it
	TokenTTLDays   int    // access token time-to-live in days
	BcryptCost     int    // bcrypt cost for password hashing
	ResetTTLMin    int    // password-reset token time-to-live in minutes
	AppURL         string // base URL used when building password-reset links
	EmailEnabled   bool   // whether outbound email is enabled (log-only otherwise)
	EmailFrom      string // sender address for outbound email
}

// Load reads configuration values from environment variables and
// returns a Config. Required variables are enforced by must() and
// missing values cause the program to exit with a fatal log message.
// An absent JWT secret is treated as a misconfigured server, never as
// a silently-ignored default.
func Load() Config {
	return Config{
		Env:          must("APP_ENV"),
		Port:         must("APP_PORT"),
		DBUser:       must("DB_USER"),
		DBPass:       os.Getenv("DB_PASS"), // empty allowed
		DBHost:       must("DB_HOST"),
		DBPort:       must("DB_PORT"),
		DBName:       must("DB_NAME"),
		JWTSecret:    must("JWT_SECRET"),
		TokenTTLDays: intOr("TOKEN_TTL_DAYS", 7),
		BcryptCost:   intOr("BCRYPT_COST", 10),
		ResetTTLMin:  intOr("PASSWORD_RESET_TTL_MIN", 30),
		AppURL:       strOr("APP_URL", "http://localhost:5173"),
		EmailEnabled: os.Getenv("EMAIL_ENABLED") == "true",
		EmailFrom:    strOr("EMAIL_FROM", "no-reply@equipment-manager.local"),
	}
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and
// exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// strOr returns the value of an optional environment variable or the
// given default when unset.
func strOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// intOr is like strOr but converts the value to an integer, falling
// back to the default on parse failure.
func intOr(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, v)
	}
	return n
}
