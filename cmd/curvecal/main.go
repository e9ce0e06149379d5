package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/meenmo/curvecal/cmd/curvecal/internal/hazard"
	"github.com/meenmo/curvecal/cmd/curvecal/internal/rates"
	"github.com/meenmo/curvecal/config"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// envFile holds optional CURVECAL_* overrides for the working directory.
const envFile = ".env"

func run(args []string, stdout, stderr io.Writer) int {
	if err := config.LoadEnvFile(envFile); err != nil {
		fmt.Fprintf(stderr, "failed to load %s: %v\n", envFile, err)
		return 1
	}
	if len(args) == 0 {
		usage(stderr)
		return 2
	}

	switch strings.ToLower(strings.TrimSpace(args[0])) {
	case "rates":
		return rates.Run(args[1:], stdout, stderr)
	case "hazard":
		return hazard.Run(args[1:], stdout, stderr)
	case "-h", "--help", "help":
		usage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n", args[0])
		usage(stderr)
		return 2
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: curvecal <command> [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  rates    Calibrate discount/forward curves unit by unit")
	fmt.Fprintln(w, "  hazard   Bootstrap hazard-rate curves from CDS par spreads")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run `curvecal <command> -h` for command-specific help.")
}
