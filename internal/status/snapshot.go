// internal/status/snapshot.go
package status

import "github.com/tamzrod/installer-client/internal/proxy"

// Snapshot represents exactly what one probe observed for one service.
// It contains no logic and no memory of the past beyond current state.
type Snapshot struct {
	Service   string
	Interface string
	State     proxy.State
	Err       error
}
