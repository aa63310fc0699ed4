package httputil

import (
	"regexp"
	"strings"
)

// ValidateChannelName checks if a host channel name is valid.
// Valid channel names must:
// - Not be empty after trimming
// - Only contain alphanumeric characters, dots, colons, hyphens, and underscores
// - Be between 1 and 128 characters
var channelRegex = regexp.MustCompile(`^[a-zA-Z0-9._:-]{1,128}$`)

func ValidateChannelName(channel string) bool {
	channel = strings.TrimSpace(channel)
	if channel == "" {
		return false
	}
	return channelRegex.MatchString(channel)
}
