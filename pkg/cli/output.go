package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
)

func printJSON(out io.Writer, data interface{}) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to marshal JSON: %v\n", err)
		return
	}
	fmt.Fprintln(out, string(jsonData))
}

func indentRaw(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "null"
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}

func printResult(out io.Writer, channel string, result json.RawMessage, format string) {
	if format == "json" {
		printJSON(out, map[string]any{"channel": channel, "result": rawOrNull(result)})
		return
	}
	fmt.Fprintf(out, "%s\n%s\n", successStyle.Render("✅ "+channel), indentRaw(result))
}

func printPush(out io.Writer, channel string, data json.RawMessage, format string) {
	if format == "json" {
		b, _ := json.Marshal(map[string]any{"channel": channel, "data": rawOrNull(data)})
		fmt.Fprintln(out, string(b))
		return
	}
	stamp := pushStyle.Render(fmt.Sprintf("[%s]", time.Now().Format("15:04:05")))
	fmt.Fprintf(out, "📨 %s %s: %s\n", stamp, channel, string(rawOrNull(data)))
}

func printChannels(out io.Writer, channels []string, format string) {
	if format == "json" {
		printJSON(out, channels)
		return
	}
	fmt.Fprintf(out, "%s\n\n", titleStyle.Render(fmt.Sprintf("📡 Host Channels (%d)", len(channels))))
	for _, ch := range channels {
		fmt.Fprintln(out, channelStyle.Render(ch))
	}
}

func rawOrNull(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage("null")
	}
	return raw
}
