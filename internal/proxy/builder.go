// internal/proxy/builder.go
package proxy

import (
	"time"

	pdbus "github.com/tamzrod/installer-client/internal/bus/dbus"
	cfg "github.com/tamzrod/installer-client/internal/config"
)

// Build constructs a handle backed by the D-Bus adapter and returns the
// transport closer. Connection is established eagerly (fail fast at
// startup); readiness itself still waits for the first Wait call.
func Build(busCfg cfg.BusConfig, svc cfg.ServiceConfig) (*Handle, func() error, error) {
	client, err := pdbus.New(pdbus.Config{
		Address:     busCfg.Address,
		Destination: svc.Destination,
		Path:        svc.Path,
		Timeout:     time.Duration(busCfg.TimeoutMs) * time.Millisecond,
	})
	if err != nil {
		return nil, nil, err
	}

	h, err := New(client, svc.Interface)
	if err != nil {
		client.Close()
		return nil, nil, err
	}

	return h, client.Close, nil
}
