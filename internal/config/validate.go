// internal/config/validate.go
package config

import (
	"fmt"
	"strings"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config: nil configuration")
	}

	if len(cfg.Client.Services) == 0 {
		return fmt.Errorf("config: at least one service required")
	}

	if cfg.Client.Bus.TimeoutMs < 0 {
		return fmt.Errorf("config: timeout_ms must be >= 0")
	}

	// ------------------------------------------------------------
	// PER-SERVICE NAME VALIDATION
	// ------------------------------------------------------------

	// key = destination | path | interface
	owner := make(map[string]string)

	for key, s := range cfg.Client.Services {
		if s.Destination == "" {
			return fmt.Errorf("service %q: destination required", key)
		}
		if !strings.Contains(s.Destination, ".") {
			return fmt.Errorf("service %q: destination %q is not a bus name", key, s.Destination)
		}

		if s.Path == "" {
			return fmt.Errorf("service %q: path required", key)
		}
		if !strings.HasPrefix(s.Path, "/") {
			return fmt.Errorf("service %q: path %q must be absolute", key, s.Path)
		}

		if s.Interface == "" {
			return fmt.Errorf("service %q: interface required", key)
		}
		if !strings.Contains(s.Interface, ".") {
			return fmt.Errorf("service %q: interface %q is not an interface name", key, s.Interface)
		}

		id := fmt.Sprintf("%s|%s|%s", s.Destination, s.Path, s.Interface)
		if prev, exists := owner[id]; exists {
			return fmt.Errorf(
				"interface collision: destination=%s path=%s interface=%s declared by services %q and %q",
				s.Destination, s.Path, s.Interface, prev, key,
			)
		}
		owner[id] = key
	}

	return nil
}
