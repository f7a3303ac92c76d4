package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"
	"github.com/jciesla/mediavault"
	"github.com/jciesla/mediavault/s3"
	vaultslog "github.com/jciesla/mediavault/slog"
	"github.com/jciesla/mediavault/transfer"
)

func main() {
	// Interrupts cancel cooperatively: the in-flight batch finishes, no
	// new batch starts.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Dependency overrides for end-to-end testing. Nil fields are wired
	// with production defaults in Run.
	NewLibrary func(ctx context.Context, cfg s3.Config) (mediavault.RemoteLibrary, error)
	Runs       mediavault.RunService
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{}
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:        ctx,
		Stdout:     stdout,
		Stderr:     stderr,
		Logger:     slog.New(slog.NewTextHandler(stderr, nil)),
		NewLibrary: m.NewLibrary,
		Runs:       m.Runs,
	}
	if deps.NewLibrary == nil {
		deps.NewLibrary = newLibrary
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("mediavault"),
		kong.Description("Bulk transfer of media items between a remote store and a local archive."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'mediavault --help' to see available commands")
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	return kongCtx.Run(deps)
}

// newLibrary builds the production remote library: an S3-compatible client,
// optionally rate limited, optionally logged.
func newLibrary(ctx context.Context, cfg s3.Config) (mediavault.RemoteLibrary, error) {
	lib, err := s3.NewLibrary(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return lib, nil
}

// decorate applies the rate limit and logging wrappers from the remote
// flags to a base library.
func decorate(lib mediavault.RemoteLibrary, flags RemoteFlags, logger *slog.Logger) mediavault.RemoteLibrary {
	if flags.RPS > 0 {
		lib = transfer.NewRateLimitedLibrary(lib, flags.RPS)
	}
	if flags.Verbose {
		lib = vaultslog.NewLoggingLibrary(lib, logger)
	}
	return lib
}
