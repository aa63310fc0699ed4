package main

import (
	"fmt"
	"os"
	"time"

	"github.com/DeBrosOfficial/hostbridge/pkg/cli"
)

var opts = cli.Options{
	Format:  "table",
	Timeout: 30 * time.Second,
}

// version metadata populated via -ldflags at build time
var (
	version = "dev"
	commit  = ""
	date    = ""
)

func main() {
	if len(os.Args) < 2 {
		showHelp()
		return
	}

	command := os.Args[1]

	// Parse global flags
	args := parseGlobalFlags(os.Args[2:])

	switch command {
	case "version":
		fmt.Printf("bridgectl %s", version)
		if commit != "" {
			fmt.Printf(" (commit %s)", commit)
		}
		if date != "" {
			fmt.Printf(" built %s", date)
		}
		fmt.Println()
		return

	// Host commands
	case "request":
		cli.HandleRequestCommand(args, opts)
	case "observe":
		cli.HandleObserveCommand(args, opts)
	case "channels":
		cli.HandleChannelsCommand(opts)
	case "serve":
		cli.HandleServeCommand(opts)

	// Local development
	case "devhost":
		cli.HandleDevHostCommand(args, opts)

	// Config commands
	case "config":
		if len(args) == 0 || args[0] != "validate" {
			fmt.Fprintf(os.Stderr, "Usage: bridgectl config validate [-c <path>]\n")
			os.Exit(1)
		}
		cli.ValidateConfigCommand(opts)

	// Help
	case "help", "--help", "-h":
		showHelp()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		showHelp()
		os.Exit(1)
	}
}

// parseGlobalFlags applies global flags to opts and returns the remaining
// positional arguments.
func parseGlobalFlags(args []string) []string {
	var rest []string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-f", "--format":
			if i+1 < len(args) {
				opts.Format = args[i+1]
				i++
			}
		case "-t", "--timeout":
			if i+1 < len(args) {
				if d, err := time.ParseDuration(args[i+1]); err == nil {
					opts.Timeout = d
				}
				i++
			}
		case "-c", "--config":
			if i+1 < len(args) {
				opts.ConfigPath = args[i+1]
				i++
			}
		default:
			rest = append(rest, args[i])
		}
	}
	return rest
}

func showHelp() {
	fmt.Printf("bridgectl - Host bridge client for widget channels\n\n")
	fmt.Printf("Usage: bridgectl <command> [args...]\n\n")

	fmt.Printf("📡 Host Commands:\n")
	fmt.Printf("  request <channel> [json]      - Send a request and print the result\n")
	fmt.Printf("  observe <channel> [json]      - Print observer pushes until timeout or Ctrl+C\n")
	fmt.Printf("  channels                      - List channels the host exposes\n")
	fmt.Printf("  serve                         - Keep the connection open and serve the inspector\n\n")

	fmt.Printf("🧪 Local Development:\n")
	fmt.Printf("  devhost [fixture.yaml]        - Run a development host on the configured address\n")
	fmt.Printf("                                  (pushes a calendar change every --timeout)\n\n")

	fmt.Printf("⚙️  Configuration:\n")
	fmt.Printf("  config validate               - Validate the config file\n\n")

	fmt.Printf("Global Flags:\n")
	fmt.Printf("  -c, --config <path>           - Config file (default: ~/.hostbridge/bridge.yaml)\n")
	fmt.Printf("  -f, --format <format>         - Output format: table, json (default: table)\n")
	fmt.Printf("  -t, --timeout <duration>      - Request or observe duration (default: 30s)\n\n")

	fmt.Printf("Examples:\n")
	fmt.Printf("  # Fetch calendars\n")
	fmt.Printf("  bridgectl request getCalendars\n\n")

	fmt.Printf("  # Fetch events in a range\n")
	fmt.Printf("  bridgectl request getCalendarEvents '{\"start\":\"2024-01-01T00:00:00Z\",\"end\":\"2024-01-31T00:00:00Z\"}'\n\n")

	fmt.Printf("  # Watch calendar changes for five minutes\n")
	fmt.Printf("  bridgectl observe registerEventChangeObserver -t 5m\n")
}
