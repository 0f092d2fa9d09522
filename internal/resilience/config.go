package resilience

import "time"

// BreakerFromConfig builds a BreakerConfig from config values. Non-positive
// values keep the defaults.
func BreakerFromConfig(failureThreshold, resetSecs int) BreakerConfig {
	cfg := DefaultBreakerConfig()
	if failureThreshold > 0 {
		cfg.FailureThreshold = failureThreshold
	}
	if resetSecs > 0 {
		cfg.ResetTimeout = time.Duration(resetSecs) * time.Second
	}
	return cfg
}
