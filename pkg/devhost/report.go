package devhost

import (
	"context"
	"encoding/json"
	"time"

	bridgeerrors "github.com/DeBrosOfficial/hostbridge/pkg/errors"
)

// cpuSampleInterval is the window over which CPU usage is measured.
const cpuSampleInterval = 250 * time.Millisecond

// MemoryReport is the getSystemMemory result.
type MemoryReport struct {
	Total       uint64  `json:"total"`
	Used        uint64  `json:"used"`
	Free        uint64  `json:"free"`
	UsedPercent float64 `json:"usedPercent"`
}

// CPUReport is the getSystemCpu result.
type CPUReport struct {
	UsagePercent float64 `json:"usagePercent"`
	User         float64 `json:"user"`
	System       float64 `json:"system"`
	Idle         float64 `json:"idle"`
}

func systemBattery(context.Context, json.RawMessage) (any, error) {
	return nil, bridgeerrors.NewHostError("system", "UNSUPPORTED", "battery status is not available on this host")
}
