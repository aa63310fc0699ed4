package features

import (
	"encoding/json"

	bridgeerrors "github.com/DeBrosOfficial/hostbridge/pkg/errors"
)

// SetWidgetData hands data to the host for persistence. Strings, numbers
// and booleans are posted as-is; anything else (including nil) is posted as
// its JSON encoding in a string.
func (f *Features) SetWidgetData(data any) error {
	switch v := data.(type) {
	case string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return f.bridge.Post(ChannelSaveWidgetData, v)
	case json.RawMessage:
		return f.bridge.Post(ChannelSaveWidgetData, string(v))
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return bridgeerrors.NewInvalidArgumentError("data", err.Error())
		}
		return f.bridge.Post(ChannelSaveWidgetData, string(b))
	}
}
