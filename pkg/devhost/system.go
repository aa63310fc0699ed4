//go:build linux || darwin

package devhost

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mackerelio/go-osstat/cpu"
	"github.com/mackerelio/go-osstat/memory"

	bridgeerrors "github.com/DeBrosOfficial/hostbridge/pkg/errors"
)

func systemMemory(context.Context, json.RawMessage) (any, error) {
	mem, err := memory.Get()
	if err != nil {
		return nil, bridgeerrors.NewHostError("system", "MEMORY_UNAVAILABLE", err.Error())
	}
	report := MemoryReport{Total: mem.Total, Used: mem.Used, Free: mem.Free}
	if mem.Total > 0 {
		report.UsedPercent = float64(mem.Used) / float64(mem.Total) * 100
	}
	return report, nil
}

func systemCPU(ctx context.Context, _ json.RawMessage) (any, error) {
	before, err := cpu.Get()
	if err != nil {
		return nil, bridgeerrors.NewHostError("system", "CPU_UNAVAILABLE", err.Error())
	}
	select {
	case <-time.After(cpuSampleInterval):
	case <-ctx.Done():
		return nil, bridgeerrors.NewHostError("system", "CANCELLED", ctx.Err().Error())
	}
	after, err := cpu.Get()
	if err != nil {
		return nil, bridgeerrors.NewHostError("system", "CPU_UNAVAILABLE", err.Error())
	}

	total := float64(after.Total - before.Total)
	if total == 0 {
		return CPUReport{Idle: 100}, nil
	}
	idle := float64(after.Idle-before.Idle) / total * 100
	return CPUReport{
		UsagePercent: 100 - idle,
		User:         float64(after.User-before.User) / total * 100,
		System:       float64(after.System-before.System) / total * 100,
		Idle:         idle,
	}, nil
}
