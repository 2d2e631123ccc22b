// internal/config/normalize.go
package config

// DefaultTimeoutMs applies when a configuration omits timeout_ms.
const DefaultTimeoutMs = 5000

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.Client.Bus.TimeoutMs == 0 {
		cfg.Client.Bus.TimeoutMs = DefaultTimeoutMs
	}
}
