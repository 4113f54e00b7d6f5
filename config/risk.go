package config

import "fmt"

// RiskConfig carries the CVaR weighting passed through to an external
// stochastic solver invocation. A zero weight disables risk weighting.
type RiskConfig struct {
	CVaRWeight float64 `json:"cvar_weight"`
	RiskAlpha  float64 `json:"risk_alpha"`
}

// Enabled reports whether CVaR weighting is requested.
func (c RiskConfig) Enabled() bool { return c.CVaRWeight > 0 }

// Validate checks parameter ranges.
func (c RiskConfig) Validate() error {
	if c.CVaRWeight < 0 {
		return fmt.Errorf("cvar_weight must be non-negative, got %g", c.CVaRWeight)
	}
	if c.Enabled() && (c.RiskAlpha <= 0 || c.RiskAlpha >= 1) {
		return fmt.Errorf("risk_alpha must be in (0,1), got %g", c.RiskAlpha)
	}
	return nil
}
