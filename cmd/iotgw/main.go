// iotgw is the edge IoT gateway binary.
//
// It mediates between MQTT field devices and HTTP/WebSocket consumers:
// telemetry arrivals update the device registry, drive the reactive rule
// engine, and fan out to every WebSocket peer.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/edgekit/iotgw/internal/gateway"
	"github.com/edgekit/iotgw/internal/infrastructure/config"
	"github.com/edgekit/iotgw/internal/infrastructure/logging"
	"github.com/edgekit/iotgw/internal/update"
)

// CLI defaults.
const (
	defaultConfigPath = "config/environments/development.yaml"
	defaultLogFile    = "logs/iotgw.log"
	defaultLogLevel   = "info"

	updateDir = "data/update"
)

// exit codes.
const (
	exitOK             = 0
	exitError          = 1
	exitSetVersionFail = 2
)

// errSetVersion marks a --set-version write failure, which exits 2.
var errSetVersion = errors.New("set version failed")

// cliArgs holds the parsed command line.
// The track* fields record whether a flag was given explicitly, since
// config values override defaults but never an explicit flag.
type cliArgs struct {
	configPath string
	logFile    string
	logLevel   string

	logFileSet  bool
	logLevelSet bool

	printVersion   bool
	setVersion     string
	setVersionOK   bool
	stageVersion   string
	stageVersionOK bool
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, errSetVersion) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(exitSetVersionFail)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitError)
	}
	os.Exit(exitOK)
}

// run is the application logic, separated from main for testability.
func run(ctx context.Context, argv []string) error {
	args := parseArgs(argv)

	// Version queries and writes short-circuit before any wiring.
	if args.printVersion {
		fmt.Println(update.CurrentVersion(updateDir))
		return nil
	}
	if args.setVersionOK {
		if err := update.SetCurrentVersion(updateDir, args.setVersion); err != nil {
			return fmt.Errorf("%w: %w", errSetVersion, err)
		}
		return nil
	}
	if args.stageVersionOK {
		return stageVersion(args.stageVersion)
	}

	cfg := config.NewMap()
	if err := cfg.LoadYAML(args.configPath); err != nil {
		// A missing or broken root config is not fatal; defaults carry.
		fmt.Fprintf(os.Stderr, "config not loaded from %s: %v\n", args.configPath, err)
	}

	logFile := args.logFile
	if !args.logFileSet {
		logFile = cfg.GetStringOr("paths.log_file", logFile)
	}
	logLevel := args.logLevel
	if !args.logLevelSet {
		logLevel = cfg.GetStringOr("logging.level", logLevel)
	}

	if dir := filepath.Dir(logFile); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "log dir not created: %v\n", err)
			logFile = ""
		}
	}
	log := logging.New(logFile, logging.ParseLevel(logLevel))

	applyStagedUpdate(log)

	version := update.CurrentVersion(updateDir)
	log.Info("starting iotgw", "version", version, "config", args.configPath)

	g := gateway.New(cfg, log, version)
	if err := g.Start(ctx); err != nil {
		return fmt.Errorf("starting gateway: %w", err)
	}
	defer g.Close()

	return g.Run(ctx)
}

// stageVersion records a pending update and prepares the staging directory
// for the package drop.
func stageVersion(version string) error {
	if err := os.MkdirAll(update.StagingPath(updateDir), 0o755); err != nil {
		return fmt.Errorf("creating staging dir: %w", err)
	}
	staged := update.Staged{
		Version:        version,
		StagedAtUnixMS: time.Now().UnixMilli(),
	}
	if err := update.SaveStaged(updateDir, staged); err != nil {
		return fmt.Errorf("staging version: %w", err)
	}
	fmt.Printf("staged %s\n", version)
	return nil
}

// applyStagedUpdate promotes a pending update before the gateway reports
// its version. A staged version that does not supersede the current one is
// left in place and only logged.
func applyStagedUpdate(log *logging.Logger) {
	s, err := update.ApplyStaged(updateDir)
	switch {
	case err == nil:
		log.Info("staged update applied", "version", s.Version)
	case errors.Is(err, update.ErrNoStaged):
	case errors.Is(err, update.ErrNotNewer):
		log.Warn("staged update skipped", "error", err)
	default:
		log.Error("staged update failed", "error", err)
	}
}

// parseArgs scans argv for the known flags. Unknown flags are silently
// ignored; both "--flag value" and "--flag=value" forms are accepted.
func parseArgs(argv []string) cliArgs {
	args := cliArgs{
		configPath: defaultConfigPath,
		logFile:    defaultLogFile,
		logLevel:   defaultLogLevel,
	}

	for i := 0; i < len(argv); i++ {
		name, value, hasValue := splitFlag(argv[i])

		takeValue := func() (string, bool) {
			if hasValue {
				return value, true
			}
			if i+1 < len(argv) {
				i++
				return argv[i], true
			}
			return "", false
		}

		switch name {
		case "--yaml-config":
			if v, ok := takeValue(); ok {
				args.configPath = v
			}
		case "--log-file":
			if v, ok := takeValue(); ok {
				args.logFile = v
				args.logFileSet = true
			}
		case "--log-level":
			if v, ok := takeValue(); ok {
				args.logLevel = v
				args.logLevelSet = true
			}
		case "--print-version":
			args.printVersion = true
		case "--set-version":
			if v, ok := takeValue(); ok {
				args.setVersion = v
				args.setVersionOK = true
			}
		case "--stage-version":
			if v, ok := takeValue(); ok {
				args.stageVersion = v
				args.stageVersionOK = true
			}
		}
	}
	return args
}

// splitFlag separates "--flag=value" into name and value.
func splitFlag(arg string) (name, value string, hasValue bool) {
	if i := strings.IndexByte(arg, '='); i >= 0 {
		return arg[:i], arg[i+1:], true
	}
	return arg, "", false
}
