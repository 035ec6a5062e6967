package helper

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/custodia-labs/glance/internal/core/domain"
	"github.com/custodia-labs/glance/internal/core/ports/driven"
)

// Ensure DeviceMonitor implements the interface.
var _ driven.DeviceMonitor = (*DeviceMonitor)(nil)

// DeviceMonitor reads power, thermal and idle state from the device helper.
type DeviceMonitor struct {
	runner *Runner
	argv   []string
}

// NewDeviceMonitor creates a monitor for argv.
func NewDeviceMonitor(runner *Runner, argv []string) *DeviceMonitor {
	return &DeviceMonitor{runner: runner, argv: argv}
}

// State returns the current device state.
func (m *DeviceMonitor) State(ctx context.Context) (domain.DeviceState, error) {
	out, err := m.runner.Run(ctx, m.argv, nil)
	if err != nil {
		return domain.DeviceState{}, fmt.Errorf("device state: %w", err)
	}
	var state domain.DeviceState
	if err := json.Unmarshal(out, &state); err != nil {
		return domain.DeviceState{}, fmt.Errorf("decoding device state: %w", err)
	}
	return state, nil
}
