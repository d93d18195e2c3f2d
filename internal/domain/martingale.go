package domain

// MartingaleConfig is the per-channel loss-recovery configuration. Loaded
// once at startup and read-only for the rest of the run.
type MartingaleConfig struct {
	Enabled          bool    `json:"mtgl_enabled"`
	MaxLevel         int     `json:"mtgl_level"`             // Number of allowed retries beyond the initial attempt
	IncrementPercent float64 `json:"mtgl_increment_percent"` // Stake growth per retry, e.g. 2.3 for +2.3%
}

// DefaultMartingaleConfig is applied to channels with no explicit entry.
func DefaultMartingaleConfig() MartingaleConfig {
	return MartingaleConfig{
		Enabled:          false,
		MaxLevel:         1,
		IncrementPercent: 2.3,
	}
}

// MaxAttempts returns the total number of placements allowed for one signal:
// the initial attempt plus the configured retries when enabled, otherwise a
// single attempt.
func (c MartingaleConfig) MaxAttempts() int {
	if !c.Enabled {
		return 1
	}
	return c.MaxLevel + 1
}

// NextStake computes the stake for a retry after a loss.
func (c MartingaleConfig) NextStake(stake float64) float64 {
	return stake * (1 + c.IncrementPercent/100)
}
