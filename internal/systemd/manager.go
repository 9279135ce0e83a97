// Package systemd wraps the D-Bus unit operations the node needs: checking
// and bouncing the media server unit when its configuration changes.
package systemd

import (
	"context"
	"fmt"
	"time"

	"github.com/coreos/go-systemd/v22/dbus"
)

// UnitManager drives systemd units over D-Bus.
type UnitManager struct {
	conn *dbus.Conn
}

// NewSystem connects to the system bus, where distribution-packaged units
// like mediamtx.service live.
func NewSystem(ctx context.Context) (*UnitManager, error) {
	conn, err := dbus.NewSystemConnectionContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("system bus connection: %w", err)
	}
	return &UnitManager{conn: conn}, nil
}

// NewUser connects to the user bus for per-user unit installs.
func NewUser(ctx context.Context) (*UnitManager, error) {
	conn, err := dbus.NewUserConnectionContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("user bus connection: %w", err)
	}
	return &UnitManager{conn: conn}, nil
}

// ActiveState returns the unit's ActiveState property value, e.g. "active"
// or "inactive".
func (m *UnitManager) ActiveState(ctx context.Context, unit string) (string, error) {
	prop, err := m.conn.GetUnitPropertyContext(ctx, unit, "ActiveState")
	if err != nil {
		return "", err
	}
	// Property values arrive quoted, e.g. `"active"`.
	state := prop.Value.String()
	if len(state) >= 2 && state[0] == '"' && state[len(state)-1] == '"' {
		state = state[1 : len(state)-1]
	}
	return state, nil
}

// Restart restarts the unit and waits for the job to finish.
func (m *UnitManager) Restart(ctx context.Context, unit string) error {
	result := make(chan string, 1)
	if _, err := m.conn.RestartUnitContext(ctx, unit, "replace", result); err != nil {
		return err
	}
	select {
	case r := <-result:
		if r != "done" {
			return fmt.Errorf("restart of %s finished with %q", unit, r)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// WaitActive polls the unit until it reports active or the deadline passes.
func (m *UnitManager) WaitActive(ctx context.Context, unit string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	for {
		state, err := m.ActiveState(ctx, unit)
		if err == nil && state == "active" {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("unit %s not active: %w", unit, ctx.Err())
		case <-time.After(200 * time.Millisecond):
		}
	}
}

// Close releases the D-Bus connection.
func (m *UnitManager) Close() {
	if m.conn != nil {
		m.conn.Close()
	}
}
