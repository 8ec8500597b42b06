package service

import "time"

const (
	DefaultMaxWorkers    = 4
	DefaultRetryDelay    = 100 * time.Millisecond
	DefaultSweepInterval = 5 * time.Minute
	DefaultRetention     = 24 * time.Hour

	// DefaultListLimit caps List results when the caller passes limit 0.
	DefaultListLimit = 50
)

// Config controls the queue engine. The zero value is usable: fields left at
// zero fall back to the defaults above. A negative SweepInterval disables the
// background retention sweep.
type Config struct {
	MaxWorkers    int           // concurrent running task bodies
	RetryDelay    time.Duration // pause between a failed attempt and its re-queue
	SweepInterval time.Duration // cadence of the background retention sweep
	Retention     time.Duration // age after which terminal tasks are evicted
}

func DefaultConfig() Config {
	return Config{
		MaxWorkers:    DefaultMaxWorkers,
		RetryDelay:    DefaultRetryDelay,
		SweepInterval: DefaultSweepInterval,
		Retention:     DefaultRetention,
	}
}

func (c Config) withDefaults() Config {
	if c.MaxWorkers <= 0 {
		c.MaxWorkers = DefaultMaxWorkers
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = DefaultRetryDelay
	}
	if c.SweepInterval == 0 {
		c.SweepInterval = DefaultSweepInterval
	}
	if c.Retention <= 0 {
		c.Retention = DefaultRetention
	}
	return c
}
