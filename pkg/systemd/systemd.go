package systemd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/coreos/go-systemd/v22/dbus"

	"github.com/forgeadm/forgeadm/pkg/defaults"
	"github.com/forgeadm/forgeadm/pkg/errors"
)

// Manager performs systemd unit operations.
type Manager interface {
	// DaemonReload reloads the systemd manager configuration, picking up
	// new or changed unit files.
	DaemonReload(ctx context.Context) error
	// Enable enables the named units for boot.
	Enable(ctx context.Context, units ...string) error
	// Start starts the named unit and waits for the job to complete.
	Start(ctx context.Context, unit string) error
	// Restart restarts the named unit and waits for the job to complete.
	Restart(ctx context.Context, unit string) error
	// ActiveState returns the unit's ActiveState property
	// (active, inactive, failed, activating, deactivating).
	ActiveState(ctx context.Context, unit string) (string, error)
}

// DBusManager is the production Manager backed by the system bus.
type DBusManager struct{}

// NewManager returns a Manager connected to the host systemd instance.
func NewManager() Manager {
	return &DBusManager{}
}

func (m *DBusManager) withConn(ctx context.Context, fn func(ctx context.Context, conn *dbus.Conn) error) error {
	conn, err := dbus.NewSystemdConnectionContext(ctx)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, "failed to connect to systemd", err)
	}
	defer conn.Close()
	return fn(ctx, conn)
}

// DaemonReload implements Manager.
func (m *DBusManager) DaemonReload(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, defaults.DaemonReloadTimeout)
	defer cancel()

	return m.withConn(ctx, func(ctx context.Context, conn *dbus.Conn) error {
		slog.Debug("reloading systemd manager configuration")
		if err := conn.ReloadContext(ctx); err != nil {
			return errors.Wrap(errors.ErrCodeCommandFailed, "daemon-reload failed", err)
		}
		return nil
	})
}

// Enable implements Manager.
func (m *DBusManager) Enable(ctx context.Context, units ...string) error {
	ctx, cancel := context.WithTimeout(ctx, defaults.ServiceTimeout)
	defer cancel()

	return m.withConn(ctx, func(ctx context.Context, conn *dbus.Conn) error {
		slog.Debug("enabling units", "units", units)
		if _, _, err := conn.EnableUnitFilesContext(ctx, units, false, true); err != nil {
			return errors.WrapWithContext(errors.ErrCodeCommandFailed,
				"failed to enable units", err, map[string]any{"units": units})
		}
		return nil
	})
}

// Start implements Manager.
func (m *DBusManager) Start(ctx context.Context, unit string) error {
	return m.runJob(ctx, unit, "start",
		func(ctx context.Context, conn *dbus.Conn, ch chan<- string) (int, error) {
			return conn.StartUnitContext(ctx, unit, "replace", ch)
		})
}

// Restart implements Manager.
func (m *DBusManager) Restart(ctx context.Context, unit string) error {
	return m.runJob(ctx, unit, "restart",
		func(ctx context.Context, conn *dbus.Conn, ch chan<- string) (int, error) {
			return conn.RestartUnitContext(ctx, unit, "replace", ch)
		})
}

// runJob submits a unit job and waits for its result. systemd reports the
// terminal job state ("done", "failed", "timeout", ...) on the channel.
func (m *DBusManager) runJob(ctx context.Context, unit, verb string,
	submit func(ctx context.Context, conn *dbus.Conn, ch chan<- string) (int, error),
) error {
	ctx, cancel := context.WithTimeout(ctx, defaults.ServiceTimeout)
	defer cancel()

	return m.withConn(ctx, func(ctx context.Context, conn *dbus.Conn) error {
		slog.Debug("submitting unit job", "unit", unit, "verb", verb)
		ch := make(chan string, 1)
		if _, err := submit(ctx, conn, ch); err != nil {
			return errors.WrapWithContext(errors.ErrCodeCommandFailed,
				fmt.Sprintf("failed to %s unit", verb), err,
				map[string]any{"unit": unit})
		}

		select {
		case result := <-ch:
			if result != "done" {
				return errors.NewWithContext(errors.ErrCodeCommandFailed,
					fmt.Sprintf("unit %s job finished with result %q", verb, result),
					map[string]any{"unit": unit})
			}
			return nil
		case <-ctx.Done():
			return errors.WrapWithContext(errors.ErrCodeTimeout,
				fmt.Sprintf("timed out waiting for unit %s", verb), ctx.Err(),
				map[string]any{"unit": unit})
		}
	})
}

// ActiveState implements Manager.
func (m *DBusManager) ActiveState(ctx context.Context, unit string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaults.CollectorTimeout)
	defer cancel()

	var state string
	err := m.withConn(ctx, func(ctx context.Context, conn *dbus.Conn) error {
		prop, err := conn.GetUnitPropertyContext(ctx, unit, "ActiveState")
		if err != nil {
			return errors.WrapWithContext(errors.ErrCodeNotFound,
				"failed to get unit state", err, map[string]any{"unit": unit})
		}
		if err := prop.Value.Store(&state); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, "unexpected ActiveState type", err)
		}
		return nil
	})
	return state, err
}
