package scheduler

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidConfig is returned by New when a required dependency is missing.
var ErrInvalidConfig = errors.New("invalid_scheduler_config")

// Config controls the scheduler's run cadence and batch sizes.
type Config struct {
	// Enabled gates the background loop. Job methods stay callable either
	// way so operators can trigger one-off runs.
	Enabled bool
	// RunInterval is both the loop cadence and the claim window: one
	// replica wins each (job, window) slot in the job_runs table.
	RunInterval time.Duration
	BatchSize   int
	JobTimeout  time.Duration
	// EnabledJobs restricts which jobs this replica runs. Empty means all.
	EnabledJobs []string
}

func DefaultConfig() Config {
	return Config{
		Enabled:     true,
		RunInterval: time.Minute,
		BatchSize:   100,
		JobTimeout:  30 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RunInterval <= 0 {
		c.RunInterval = defaults.RunInterval
	}
	if c.BatchSize <= 0 {
		c.BatchSize = defaults.BatchSize
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = defaults.JobTimeout
	}
	return c
}

// ProvideConfig reads the scheduler knobs from the environment.
func ProvideConfig() Config {
	cfg := DefaultConfig()
	cfg.Enabled = envBool("SCHEDULER_ENABLED", cfg.Enabled)
	cfg.RunInterval = envDuration("SCHEDULER_RUN_INTERVAL", cfg.RunInterval)
	cfg.BatchSize = envInt("SCHEDULER_BATCH_SIZE", cfg.BatchSize)
	cfg.JobTimeout = envDuration("SCHEDULER_JOB_TIMEOUT", cfg.JobTimeout)
	cfg.EnabledJobs = envList("SCHEDULER_ENABLED_JOBS")
	return cfg.withDefaults()
}

func envBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch value {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}

func envDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func envInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func envList(key string) []string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	jobs := make([]string, 0, len(parts))
	for _, part := range parts {
		if job := strings.TrimSpace(part); job != "" {
			jobs = append(jobs, job)
		}
	}
	return jobs
}
