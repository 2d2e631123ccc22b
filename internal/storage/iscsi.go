// internal/storage/iscsi.go
package storage

import (
	"context"
	"fmt"
	"math"

	"github.com/tamzrod/installer-client/internal/notify"
	"github.com/tamzrod/installer-client/internal/proxy"
	"github.com/tamzrod/installer-client/internal/variant"
)

// Property and method names of the iSCSI interface.
const (
	propInitiatorName = "InitiatorName"
	propInitiatorIBFT = "IBFT"
	propNodes         = "Nodes"

	methodDiscover   = "Discover"
	methodLogin      = "Login"
	methodLogout     = "Logout"
	methodDeleteNode = "DeleteNode"
	methodSetStartup = "SetStartup"
)

// Initiator is the local iSCSI initiator identity.
type Initiator struct {
	Name string
	IBFT bool
}

// Node is one discovered iSCSI node.
type Node struct {
	ID        int64
	Target    string
	Address   string
	Port      int64
	Interface string
	IBFT      bool
	Connected bool
	Startup   string
}

// Auth carries the optional CHAP credentials for discovery and login.
// Empty fields mean no authentication in that direction.
type Auth struct {
	Username        string
	Password        string
	ReverseUsername string
	ReversePassword string
}

// LoginResult is the remote outcome code of a login attempt.
type LoginResult int64

const (
	LoginSuccess        LoginResult = 0
	LoginInvalidStartup LoginResult = 1
	LoginFailed         LoginResult = 2
)

func (r LoginResult) String() string {
	switch r {
	case LoginSuccess:
		return "success"
	case LoginInvalidStartup:
		return "invalid startup"
	case LoginFailed:
		return "failed"
	default:
		return fmt.Sprintf("result(%d)", int64(r))
	}
}

// ISCSIClient reads and drives the iSCSI service.
type ISCSIClient struct {
	h *proxy.Handle
	n *notify.Notifier
}

func NewISCSIClient(h *proxy.Handle) *ISCSIClient {
	return &ISCSIClient{h: h, n: notify.New(h)}
}

// GetInitiator returns the initiator name and whether it came from iBFT.
func (c *ISCSIClient) GetInitiator(ctx context.Context) (*Initiator, error) {
	if err := c.h.Wait(ctx); err != nil {
		return nil, err
	}

	nameProp, err := c.h.Property(propInitiatorName)
	if err != nil {
		return nil, err
	}
	name, err := variant.AsString(nameProp)
	if err != nil {
		return nil, err
	}

	ibftProp, err := c.h.Property(propInitiatorIBFT)
	if err != nil {
		return nil, err
	}
	ibft, err := variant.AsBool(ibftProp)
	if err != nil {
		return nil, err
	}

	return &Initiator{Name: name, IBFT: ibft}, nil
}

// SetInitiatorName writes the initiator name property.
func (c *ISCSIClient) SetInitiatorName(ctx context.Context, name string) error {
	if err := c.h.Wait(ctx); err != nil {
		return err
	}
	return c.h.SetProperty(ctx, propInitiatorName, name)
}

// GetNodes decodes the discovered node collection. Each wire element is
// an (id, target, address, port, interface, ibft, connected, startup)
// tuple.
func (c *ISCSIClient) GetNodes(ctx context.Context) ([]Node, error) {
	if err := c.h.Wait(ctx); err != nil {
		return nil, err
	}

	prop, err := c.h.Property(propNodes)
	if err != nil {
		return nil, err
	}
	return decodeNodes(prop)
}

// Discover probes a portal for nodes and reports whether it succeeded.
func (c *ISCSIClient) Discover(ctx context.Context, address string, port int64, auth Auth) (bool, error) {
	if err := c.h.Wait(ctx); err != nil {
		return false, err
	}

	wp, err := wirePort(port)
	if err != nil {
		return false, err
	}
	out, err := c.h.Invoke(ctx, methodDiscover, address, wp, authArgs(auth))
	if err != nil {
		return false, err
	}
	return variant.AsBool(out)
}

// Login creates a session with a node and returns the remote outcome.
func (c *ISCSIClient) Login(ctx context.Context, nodeID int64, auth Auth, startup string) (LoginResult, error) {
	if err := c.h.Wait(ctx); err != nil {
		return LoginFailed, err
	}

	id, err := wireNodeID(nodeID)
	if err != nil {
		return LoginFailed, err
	}
	out, err := c.h.Invoke(ctx, methodLogin, id, authArgs(auth), startup)
	if err != nil {
		return LoginFailed, err
	}
	code, err := variant.AsInt(out)
	if err != nil {
		return LoginFailed, err
	}
	return LoginResult(code), nil
}

// Logout closes the session with a node.
func (c *ISCSIClient) Logout(ctx context.Context, nodeID int64) (bool, error) {
	if err := c.h.Wait(ctx); err != nil {
		return false, err
	}

	id, err := wireNodeID(nodeID)
	if err != nil {
		return false, err
	}
	out, err := c.h.Invoke(ctx, methodLogout, id)
	if err != nil {
		return false, err
	}
	return variant.AsBool(out)
}

// DeleteNode removes a discovered node.
func (c *ISCSIClient) DeleteNode(ctx context.Context, nodeID int64) error {
	if err := c.h.Wait(ctx); err != nil {
		return err
	}
	id, err := wireNodeID(nodeID)
	if err != nil {
		return err
	}
	_, err = c.h.Invoke(ctx, methodDeleteNode, id)
	return err
}

// SetStartup sets a node's startup mode.
func (c *ISCSIClient) SetStartup(ctx context.Context, nodeID int64, startup string) error {
	if err := c.h.Wait(ctx); err != nil {
		return err
	}
	id, err := wireNodeID(nodeID)
	if err != nil {
		return err
	}
	_, err = c.h.Invoke(ctx, methodSetStartup, id, startup)
	return err
}

// OnInitiatorChange delivers the initiator whenever its name or iBFT
// flag changes.
func (c *ISCSIClient) OnInitiatorChange(cb func(*Initiator, error)) (func(), error) {
	if cb == nil {
		return nil, fmt.Errorf("storage: callback required")
	}
	return c.n.OnChange(func(ev notify.Event) {
		if ev.Err != nil {
			cb(nil, ev.Err)
			return
		}
		_, name := ev.Changed[propInitiatorName]
		_, ibft := ev.Changed[propInitiatorIBFT]
		invalidated := ev.WasInvalidated(propInitiatorName) || ev.WasInvalidated(propInitiatorIBFT)
		if !name && !ibft && !invalidated {
			return
		}
		ctx := context.Background()
		if invalidated {
			if err := c.h.Refresh(ctx); err != nil {
				cb(nil, err)
				return
			}
		}
		cb(c.GetInitiator(ctx))
	})
}

// OnNodesChange delivers the node collection on every change to it.
func (c *ISCSIClient) OnNodesChange(cb func([]Node, error)) (func(), error) {
	if cb == nil {
		return nil, fmt.Errorf("storage: callback required")
	}
	return c.n.OnChange(func(ev notify.Event) {
		if ev.Err != nil {
			cb(nil, ev.Err)
			return
		}
		if ev.WasInvalidated(propNodes) {
			ctx := context.Background()
			if err := c.h.Refresh(ctx); err != nil {
				cb(nil, err)
				return
			}
			cb(c.GetNodes(ctx))
			return
		}
		v, ok := ev.Changed[propNodes]
		if !ok {
			return
		}
		cb(decodeNodes(v))
	})
}

func (c *ISCSIClient) Close() error {
	return c.n.Close()
}

func decodeNodes(v variant.Value) ([]Node, error) {
	elems, err := variant.AsArray(v)
	if err != nil {
		return nil, err
	}

	nodes := make([]Node, 0, len(elems))
	for _, e := range elems {
		fields, err := variant.AsStruct(e, 8)
		if err != nil {
			return nil, err
		}

		var n Node
		if n.ID, err = variant.AsInt(fields[0]); err != nil {
			return nil, err
		}
		if n.Target, err = variant.AsString(fields[1]); err != nil {
			return nil, err
		}
		if n.Address, err = variant.AsString(fields[2]); err != nil {
			return nil, err
		}
		if n.Port, err = variant.AsInt(fields[3]); err != nil {
			return nil, err
		}
		if n.Interface, err = variant.AsString(fields[4]); err != nil {
			return nil, err
		}
		if n.IBFT, err = variant.AsBool(fields[5]); err != nil {
			return nil, err
		}
		if n.Connected, err = variant.AsBool(fields[6]); err != nil {
			return nil, err
		}
		if n.Startup, err = variant.AsString(fields[7]); err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// wirePort validates a portal port for the wire's unsigned 32-bit slot.
func wirePort(port int64) (uint32, error) {
	if port <= 0 || port > 65535 {
		return 0, fmt.Errorf("storage: port %d out of range", port)
	}
	return uint32(port), nil
}

// wireNodeID validates a node id for the wire's unsigned 32-bit slot.
func wireNodeID(id int64) (uint32, error) {
	if id < 0 || id > math.MaxUint32 {
		return 0, fmt.Errorf("storage: node id %d out of range", id)
	}
	return uint32(id), nil
}

// authArgs shapes credentials for the wire, omitting empty fields.
func authArgs(a Auth) map[string]string {
	args := make(map[string]string)
	if a.Username != "" {
		args["Username"] = a.Username
	}
	if a.Password != "" {
		args["Password"] = a.Password
	}
	if a.ReverseUsername != "" {
		args["ReverseUsername"] = a.ReverseUsername
	}
	if a.ReversePassword != "" {
		args["ReversePassword"] = a.ReversePassword
	}
	return args
}
