package systemd

import (
	"context"
	"sync"
)

// Fake is a Manager for tests. It records operations in order and can be
// primed with per-unit errors and states.
type Fake struct {
	mu sync.Mutex

	// Ops records operations as "verb unit" (daemon-reload has no unit).
	Ops []string

	// Errs maps an op string to the error it should return.
	Errs map[string]error

	// States maps unit names to ActiveState answers. Unknown units report
	// "inactive".
	States map[string]string
}

func (f *Fake) record(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Ops = append(f.Ops, op)
	return f.Errs[op]
}

// DaemonReload implements Manager.
func (f *Fake) DaemonReload(_ context.Context) error {
	return f.record("daemon-reload")
}

// Enable implements Manager.
func (f *Fake) Enable(_ context.Context, units ...string) error {
	var err error
	for _, u := range units {
		if e := f.record("enable " + u); e != nil {
			err = e
		}
	}
	return err
}

// Start implements Manager.
func (f *Fake) Start(_ context.Context, unit string) error {
	return f.record("start " + unit)
}

// Restart implements Manager.
func (f *Fake) Restart(_ context.Context, unit string) error {
	return f.record("restart " + unit)
}

// ActiveState implements Manager.
func (f *Fake) ActiveState(_ context.Context, unit string) (string, error) {
	if err := f.record("state " + unit); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.States[unit]; ok {
		return s, nil
	}
	return "inactive", nil
}
