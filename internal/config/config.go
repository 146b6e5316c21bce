package config // package config loads application configuration from environment variables

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable. The types reflect how the values are used in the
// application: strings for identifiers and secrets, ints and durations for
// windows and costs.
type Config struct {
	Env         string // application environment (e.g. "dev", "prod")
	Port        string // HTTP port to listen on
	DBUser      string // database username
	DBPass      string // database password (optional)
	DBHost      string // database host address
	DBPort      string // database port number
	DBName      string // database name
	JWTSecret   string // secret used to sign JWTs
	TokenTTL    int    // access token time-to-live in hours
	BcryptCost  int    // bcrypt cost for password hashing
	AdminAPIKey string // static key for admin endpoints (game management, ticket verification)

	// Marketplace policy knobs.
	SchoolDomain      string        // required email domain suffix for registration
	ListingCutoffMin  int           // minutes before game time after which trading closes
	TransferWindow    time.Duration // how long an unverified listing may wait for custodial transfer
	ReservationWindow time.Duration // how long a reservation holds the locked price
	VerifyingTimeout  time.Duration // how long a ticket may sit in Verifying before reset
	CleanupInterval   time.Duration // how often the reservation/verifying sweepers run
	DeadlineInterval  time.Duration // how often expired unverified listings are purged
	DevVerification   bool          // echo verification codes in register responses (dev only)
	StripeSecretKey   string        // Stripe API key (empty disables capture/cancel calls)
	StripeWebhookKey  string        // Stripe webhook signing secret
}

// Load reads configuration values from environment variables and returns a
// Config. Required variables are enforced by must() and missing values cause
// the program to exit with a fatal log message. Policy knobs fall back to the
// defaults the marketplace shipped with.
func Load() Config {
	return Config{
		Env:         must("APP_ENV"),
		Port:        must("APP_PORT"),
		DBUser:      must("DB_USER"),
		DBPass:      os.Getenv("DB_PASS"), // empty allowed
		DBHost:      must("DB_HOST"),
		DBPort:      must("DB_PORT"),
		DBName:      must("DB_NAME"),
		JWTSecret:   must("JWT_SECRET"),
		TokenTTL:    envInt("TOKEN_TTL_HOURS", 24),
		BcryptCost:  envInt("BCRYPT_COST", 10),
		AdminAPIKey: must("ADMIN_API_KEY"),

		SchoolDomain:      envStr("SCHOOL_EMAIL_DOMAIN", "msu.edu"),
		ListingCutoffMin:  envInt("LISTING_CUTOFF_MINUTES", 60),
		TransferWindow:    envDur("TRANSFER_DEADLINE_WINDOW", 48*time.Hour),
		ReservationWindow: envDur("TOTAL_RESERVATION_WINDOW", 7*time.Minute),
		VerifyingTimeout:  envDur("VERIFYING_TIMEOUT", 10*time.Minute),
		CleanupInterval:   envDur("RESERVATION_CLEANUP_INTERVAL", time.Minute),
		DeadlineInterval:  envDur("TRANSFER_DEADLINE_CLEANUP_INTERVAL", time.Hour),
		DevVerification:   envBool("DEV_RETURN_VERIFICATION_CODE", true),
		StripeSecretKey:   os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookKey:  os.Getenv("STRIPE_WEBHOOK_SECRET"),
	}
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return d
}

func envBool(k string, d bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	switch v {
	case "1", "true", "TRUE", "True", "yes", "YES", "on", "ON":
		return true
	case "0", "false", "FALSE", "False", "no", "NO", "off", "OFF":
		return false
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if dur, err := time.ParseDuration(v); err == nil {
		return dur
	}
	return d
}
