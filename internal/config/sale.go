package config

import "time"

// SaleConfig carries the timings of the point-of-sale flow.  The defaults
// match what the box office runs with: a 7 minute seat hold, ZaloPay status
// polled every 7 seconds, a 3 second pause on the success screen and a 15
// minute window for the customer to scan the QR code.
type SaleConfig struct {
	HoldWindow         time.Duration // seat hold measured from order.orderDate
	PollInterval       time.Duration // gap between ZaloPay status requests
	SuccessGrace       time.Duration // pause between SUCCESS and order completion
	ScanWindow         time.Duration // "time left to scan" shown next to the QR
	AbortOnScanTimeout bool          // stop polling when the scan window runs out
	SnapshotTTL        time.Duration // lifetime of a session snapshot in Redis
	SnapshotPrefix     string        // Redis key prefix for session snapshots
}

// DefaultSaleConfig returns the production timings without reading the
// environment.
func DefaultSaleConfig() SaleConfig {
	return SaleConfig{
		HoldWindow:     7 * time.Minute,
		PollInterval:   7 * time.Second,
		SuccessGrace:   3 * time.Second,
		ScanWindow:     15 * time.Minute,
		SnapshotTTL:    30 * time.Minute,
		SnapshotPrefix: "pos:session",
	}
}

// LoadSaleConfig reads POS_* variables on top of DefaultSaleConfig.
// Non-positive durations fall back to the defaults.
func LoadSaleConfig() SaleConfig {
	def := DefaultSaleConfig()
	cfg := SaleConfig{
		HoldWindow:         envDur("POS_HOLD_WINDOW", def.HoldWindow),
		PollInterval:       envDur("POS_POLL_INTERVAL", def.PollInterval),
		SuccessGrace:       envDur("POS_SUCCESS_GRACE", def.SuccessGrace),
		ScanWindow:         envDur("POS_SCAN_WINDOW", def.ScanWindow),
		AbortOnScanTimeout: envBool("POS_ABORT_ON_SCAN_TIMEOUT", false),
		SnapshotTTL:        envDur("POS_SNAPSHOT_TTL", def.SnapshotTTL),
		SnapshotPrefix:     envStr("POS_SNAPSHOT_PREFIX", def.SnapshotPrefix),
	}
	if cfg.HoldWindow <= 0 {
		cfg.HoldWindow = def.HoldWindow
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.SuccessGrace < 0 {
		cfg.SuccessGrace = def.SuccessGrace
	}
	if cfg.ScanWindow <= 0 {
		cfg.ScanWindow = def.ScanWindow
	}
	if cfg.SnapshotTTL <= 0 {
		cfg.SnapshotTTL = def.SnapshotTTL
	}
	return cfg
}
