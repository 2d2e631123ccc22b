// internal/config/config.go
package config

type Config struct {
	Client ClientConfig `yaml:"client"`
}

type ClientConfig struct {
	Bus      BusConfig                `yaml:"bus"`
	Services map[string]ServiceConfig `yaml:"services"`
}

// ---- BUS ----

type BusConfig struct {
	// Address is a D-Bus address string. Empty selects the system bus.
	Address   string `yaml:"address"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

// ---- SERVICE ----

// ServiceConfig names one remote interface. Names are configuration,
// not business logic, but they must match the remote side exactly.
type ServiceConfig struct {
	Destination string `yaml:"destination"`
	Path        string `yaml:"path"`
	Interface   string `yaml:"interface"`
}

// Well-known service keys the CLI wires up.
const (
	ServiceSoftware        = "software"
	ServiceStorageProposal = "storage_proposal"
	ServiceStorageActions  = "storage_actions"
	ServiceISCSI           = "iscsi"
	ServiceProgress        = "progress"
)
