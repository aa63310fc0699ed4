package features

import (
	"context"

	"github.com/DeBrosOfficial/hostbridge/pkg/bridge"
)

// GetCosmoURL resolves an app-relative path to an absolute URL. The host
// decides the origin.
func (f *Features) GetCosmoURL(ctx context.Context, path string) (string, error) {
	var url string
	err := f.request(ctx, ChannelGetCosmoURL, bridge.Payload{"path": path}, &url)
	return url, err
}

// OpenURL asks the host to open url. No reply is expected.
func (f *Features) OpenURL(url string) error {
	return f.bridge.Post(ChannelOpenURL, url)
}

// OpenCosmoURL asks the host to open an app-relative route.
func (f *Features) OpenCosmoURL(path string) error {
	return f.bridge.Post(ChannelOpenCosmoURL, path)
}
