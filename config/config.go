package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Settings holds the engine tunables. Everything is read from the
// environment with sensible defaults so a bare deployment still works.
type Settings struct {
	GenerationCeiling int     // max appointments created per batch invocation
	WindowMonths      int     // how many months ahead the rolling window covers
	LookbackDays      int     // how much history pattern detection considers
	HorizonMonths     int     // cap on recurrence series length
	Workers           int     // bounded per-customer parallelism
	CronSpec          string  // schedule for the periodic batch run
	SyncTimeoutSec    int     // per-call timeout against the calendar API
	RunIntervalHours  float64 // used to compute the reported next-run time
}

// Load reads settings from the environment (after a best-effort .env load).
func Load() Settings {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file. Using environment variables directly.")
	}

	return Settings{
		GenerationCeiling: envInt("GENERATION_CEILING", 60),
		WindowMonths:      envInt("GENERATION_WINDOW_MONTHS", 2),
		LookbackDays:      envInt("PATTERN_LOOKBACK_DAYS", 90),
		HorizonMonths:     envInt("RECURRENCE_HORIZON_MONTHS", 3),
		Workers:           envInt("SCHEDULER_WORKERS", 4),
		CronSpec:          envString("SCHEDULER_CRON", "0 3 * * *"),
		SyncTimeoutSec:    envInt("CALENDAR_SYNC_TIMEOUT_SEC", 15),
		RunIntervalHours:  envFloat("SCHEDULER_INTERVAL_HOURS", 24),
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Printf("Warning: invalid %s=%q, using default %d", key, v, fallback)
		return fallback
	}
	return n
}

func envFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		log.Printf("Warning: invalid %s=%q, using default %v", key, v, fallback)
		return fallback
	}
	return f
}
