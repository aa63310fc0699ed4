package features

import (
	"context"
	"encoding/json"
)

// GetSystemMemory returns the host's memory report as sent.
func (f *Features) GetSystemMemory(ctx context.Context) (json.RawMessage, error) {
	return f.raw(ctx, ChannelGetSystemMemory, nil)
}

// GetSystemCPU returns the host's CPU report as sent.
func (f *Features) GetSystemCPU(ctx context.Context) (json.RawMessage, error) {
	return f.raw(ctx, ChannelGetSystemCPU, nil)
}

// GetSystemBattery returns the host's battery report as sent.
func (f *Features) GetSystemBattery(ctx context.Context) (json.RawMessage, error) {
	return f.raw(ctx, ChannelGetSystemBattery, nil)
}

// Is24HourFormat reports the host clock preference.
func (f *Features) Is24HourFormat(ctx context.Context) (bool, error) {
	var out bool
	err := f.request(ctx, ChannelIs24HourFormat, nil, &out)
	return out, err
}
