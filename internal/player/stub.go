//go:build !linux

package player

import (
	"errors"
	"log/slog"
)

// MPRIS is only functional on Linux, where D-Bus carries player state.
type MPRIS struct{}

var errUnsupported = errors.New("mpris is only supported on linux")

func OpenMPRIS(_ string, _ *slog.Logger) (*MPRIS, error) {
	return nil, errUnsupported
}

func (m *MPRIS) Sample() (Status, error) { return Status{}, errUnsupported }

func (m *MPRIS) Events() <-chan Status { return nil }

func (m *MPRIS) Close() error { return nil }
