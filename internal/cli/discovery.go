package cli

import (
	"context"
	"io"
	"log/slog"
	"os/exec"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/heroku/heroku-mcp-server/internal/errors"
)

const (
	// MinimumVersion is the minimum Heroku CLI version with REPL support.
	MinimumVersion = errors.MinimumCLIVersion

	// VersionCheckTimeout bounds each probe command.
	VersionCheckTimeout = 10 * time.Second
)

var herokuVersionPattern = regexp.MustCompile(`heroku/(\d+\.\d+\.\d+)`)

// LaunchSpec is the executable and arguments that start the REPL.
type LaunchSpec struct {
	Command string
	Args    []string
}

// String renders the launch spec as a shell-like command line.
func (s *LaunchSpec) String() string {
	return strings.TrimSpace(s.Command + " " + strings.Join(s.Args, " "))
}

// Runner executes a probe command and returns its stdout.
// A non-nil error means the command could not run or exited non-zero.
type Runner func(ctx context.Context, name string, args ...string) (string, error)

// ExecRunner runs probes with os/exec.
func ExecRunner(ctx context.Context, name string, args ...string) (string, error) {
	output, err := exec.CommandContext(ctx, Executable(name), args...).Output()

	return string(output), err
}

// Config holds configuration for launch resolution.
type Config struct {
	// Runner overrides the probe runner. Defaults to ExecRunner.
	Runner Runner

	// Logger is an optional logger for resolution. If nil, logs are discarded.
	Logger *slog.Logger
}

// Resolver determines how the REPL process should be launched.
type Resolver interface {
	// Resolve returns the launch spec or a typed error explaining why no
	// launcher is usable.
	Resolve(ctx context.Context) (*LaunchSpec, error)
}

type resolver struct {
	run Runner
	log *slog.Logger
}

// Compile-time verification that resolver implements Resolver.
var _ Resolver = (*resolver)(nil)

// NewResolver creates a Resolver with the given configuration.
func NewResolver(cfg *Config) Resolver {
	if cfg == nil {
		cfg = &Config{}
	}

	run := cfg.Runner
	if run == nil {
		run = ExecRunner
	}

	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &resolver{
		run: run,
		log: log.With("component", "cli_resolver"),
	}
}

// Resolve probes for npx first and falls back to a local heroku binary.
func (r *resolver) Resolve(ctx context.Context) (*LaunchSpec, error) {
	_, err := r.probe(ctx, "npx", "--version")
	if err == nil {
		r.log.Debug("Using npx to launch the Heroku CLI")

		return &LaunchSpec{Command: "npx", Args: []string{"-y", "heroku@latest", "--repl"}}, nil
	}

	r.log.Debug("npx probe failed", "error", err)

	output, err := r.probe(ctx, "heroku", "version")
	if err != nil {
		r.log.Debug("heroku probe failed", "error", err)

		return nil, &errors.CLINotFoundError{Err: err}
	}

	match := herokuVersionPattern.FindStringSubmatch(output)
	if match == nil {
		r.log.Debug("Could not parse Heroku CLI version", "output", output)

		return nil, &errors.VersionParseError{Output: strings.TrimSpace(output)}
	}

	version := match[1]
	if compareVersions(version, MinimumVersion) < 0 {
		r.log.Warn("Heroku CLI version is unsupported",
			"version", version,
			"minimum_required", MinimumVersion,
		)

		return nil, &errors.UnsupportedVersionError{Version: version}
	}

	r.log.Debug("Using installed Heroku CLI", "version", version)

	return &LaunchSpec{Command: "heroku", Args: []string{"--repl"}}, nil
}

func (r *resolver) probe(ctx context.Context, name string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, VersionCheckTimeout)
	defer cancel()

	return r.run(ctx, name, args...)
}

// Executable maps npx and heroku to their Windows shims.
func Executable(name string) string {
	if runtime.GOOS == "windows" && !strings.Contains(name, ".") {
		return name + ".cmd"
	}

	return name
}

// compareVersions compares two semantic versions.
// Returns -1 if a < b, 0 if a == b, 1 if a > b.
func compareVersions(a, b string) int {
	aParts := strings.Split(a, ".")
	bParts := strings.Split(b, ".")

	for i := range 3 {
		aNum := 0
		bNum := 0

		if i < len(aParts) {
			aNum, _ = strconv.Atoi(aParts[i])
		}

		if i < len(bParts) {
			bNum, _ = strconv.Atoi(bParts[i])
		}

		if aNum < bNum {
			return -1
		}

		if aNum > bNum {
			return 1
		}
	}

	return 0
}
