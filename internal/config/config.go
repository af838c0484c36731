package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// LoadEnv loads variables from a .env file if present.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file found: %v", err)
	}
}

// GetEnv returns an environment variable or a default value.
func GetEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return defaultVal
}

// GetIntEnv returns an int environment variable or a default value.
func GetIntEnv(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// GetDurationEnv returns a duration environment variable or a default value.
func GetDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
		log.Printf("Invalid %s, using default: %s", key, defaultVal)
	}
	return defaultVal
}

// IsProduction checks if the app runs in production mode.
func IsProduction() bool {
	return GetEnv("ENV", "development") == "production"
}

// Settlement holds the knobs of the settlement engine.
type Settlement struct {
	PlatformFeePercent decimal.Decimal
	PayoutGracePeriod  time.Duration
	ElevationTTL       time.Duration
	ElevationSecret    string
	AdminPasscodeHash  string
	OverdueSweepHour   uint
	IdempotencyTTL     time.Duration
}

// LoadSettlement reads the settlement configuration from the environment.
func LoadSettlement() Settlement {
	pct, err := decimal.NewFromString(GetEnv("PLATFORM_FEE_PERCENT", "5"))
	if err != nil || pct.IsNegative() || pct.GreaterThan(decimal.NewFromInt(100)) {
		log.Printf("Invalid PLATFORM_FEE_PERCENT, using default: 5")
		pct = decimal.NewFromInt(5)
	}

	hour := GetIntEnv("OVERDUE_SWEEP_HOUR", 6)
	if hour < 0 || hour > 23 {
		hour = 6
	}

	return Settlement{
		PlatformFeePercent: pct,
		PayoutGracePeriod:  GetDurationEnv("PAYOUT_GRACE_PERIOD", 7*24*time.Hour),
		ElevationTTL:       GetDurationEnv("ELEVATION_TTL", 15*time.Minute),
		ElevationSecret:    GetEnv("ELEVATION_SECRET", GetEnv("JWT_SECRET", "tourneypay")),
		AdminPasscodeHash:  GetEnv("ADMIN_PASSCODE_HASH", ""),
		OverdueSweepHour:   uint(hour),
		IdempotencyTTL:     GetDurationEnv("IDEMPOTENCY_TTL", 10*time.Minute),
	}
}
