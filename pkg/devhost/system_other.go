//go:build !linux && !darwin

package devhost

import (
	"context"
	"encoding/json"

	bridgeerrors "github.com/DeBrosOfficial/hostbridge/pkg/errors"
)

func systemMemory(context.Context, json.RawMessage) (any, error) {
	return nil, bridgeerrors.NewHostError("system", "UNSUPPORTED", "memory statistics are not available on this platform")
}

func systemCPU(context.Context, json.RawMessage) (any, error) {
	return nil, bridgeerrors.NewHostError("system", "UNSUPPORTED", "cpu statistics are not available on this platform")
}
