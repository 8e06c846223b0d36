package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	cmdpreview "grid-accounting/command/preview"
	cmdreport "grid-accounting/command/report"
	cmdweb "grid-accounting/command/web"
	"grid-accounting/domain/usage"
)

// Grid usage accounting report generator.
// Usage:
//   grid-accounting report  [-year 2012 -month 3]   submit to the central store
//   grid-accounting preview [-year 2012 -month 3]   print rows, no writes
//   grid-accounting web     [-addr :8080 -data ./data]
// Notes:
// - Set CONFIG_PATH to point to a YAML config file (default ./config.yml).
// - Each failure category exits with its own status so an operator can tell
//   configuration problems from infrastructure ones.

func main() {
	args := os.Args
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	slog.SetDefault(slog.New(h))

	if len(args) > 1 {
		sub := args[1]
		rest := append([]string{}, args[2:]...)
		var err error
		switch sub {
		case "report":
			err = cmdreport.Run(rest)
		case "preview":
			err = cmdpreview.Run(rest)
		case "web":
			err = cmdweb.Run(rest)
		default:
			usageExit()
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(exitCode(err))
		}
		return
	}
	usageExit()
}

func usageExit() {
	fmt.Fprintln(os.Stderr, "usage: grid-accounting report [-year <y> -month <m>] | preview [-year <y> -month <m>] | web [-addr :8080] [-data ./data]\nENV: set CONFIG_PATH to point to a YAML config file (default ./config.yml)")
	os.Exit(2)
}

// exitCode maps a failure category to its stable process exit status.
func exitCode(err error) int {
	switch {
	case errors.Is(err, usage.ErrConfiguration):
		return 3
	case errors.Is(err, usage.ErrInvalidPeriod):
		return 4
	case errors.Is(err, usage.ErrSourceFetch):
		return 5
	case errors.Is(err, usage.ErrAnonymization):
		return 6
	case errors.Is(err, usage.ErrDestinationWrite):
		return 7
	}
	return 1
}
