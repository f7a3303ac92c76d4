package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/jciesla/mediavault"
	"github.com/jciesla/mediavault/s3"
)

// Dependencies holds services and configuration for command execution.
// NewLibrary is a factory so tests can substitute a fake remote collection.
type Dependencies struct {
	Ctx        context.Context
	Stdout     io.Writer
	Stderr     io.Writer
	Logger     *slog.Logger
	NewLibrary func(ctx context.Context, cfg s3.Config) (mediavault.RemoteLibrary, error)
	Runs       mediavault.RunService
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Download DownloadCmd `cmd:"" help:"Download the remote collection into the local archive"`
	Delete   DeleteCmd   `cmd:"" help:"Delete the remote collection (no download)"`
	Sweep    SweepCmd    `cmd:"" help:"Download the remote collection, then delete what was archived"`
	History  HistoryCmd  `cmd:"" help:"Show past run summaries"`
}

// RemoteFlags are the connection settings for the remote media store.
// Credentials come from the environment so they never appear in shell
// history or process listings.
type RemoteFlags struct {
	Bucket    string  `required:"" help:"Remote bucket holding the media collection"`
	Endpoint  string  `help:"Custom endpoint URL for S3-compatible stores"`
	Region    string  `default:"us-east-1" help:"Remote region"`
	Prefix    string  `help:"Key prefix limiting the collection"`
	AccessKey string  `env:"MEDIAVAULT_ACCESS_KEY" help:"Access key ID"`
	SecretKey string  `env:"MEDIAVAULT_SECRET_KEY" help:"Secret access key"`
	RPS       float64 `default:"0" help:"Remote request rate limit per second (0 disables)"`
	Verbose   bool    `short:"v" help:"Log remote operations"`
}

// StoreFlags locate the local archive and its companion files.
type StoreFlags struct {
	Dir     string `default:"." help:"Base directory for the archive, failure log, and history"`
	Archive string `default:"iCloudMedia.zip" help:"Archive filename"`
}

// DownloadCmd is the "download" subcommand.
type DownloadCmd struct {
	RemoteFlags
	StoreFlags
	BatchSize int `default:"100" help:"Items per batch"`
	Workers   int `short:"w" default:"10" help:"Concurrent download limit"`
}

// DeleteCmd is the "delete" subcommand.
type DeleteCmd struct {
	RemoteFlags
	StoreFlags
	BatchSize int  `default:"100" help:"Items per batch"`
	Force     bool `help:"Confirm deletion without a local copy"`
}

// SweepCmd is the "sweep" subcommand: download, then delete what was
// archived. An item is deleted once its local copy is verified this run,
// whether freshly downloaded or already current in the archive; items that
// failed to download are never deleted.
type SweepCmd struct {
	RemoteFlags
	StoreFlags
	BatchSize int `default:"100" help:"Items per batch"`
	Workers   int `short:"w" default:"10" help:"Concurrent download limit"`
}

// HistoryCmd is the "history" subcommand.
type HistoryCmd struct {
	StoreFlags
	Mode  string `help:"Filter by run mode (download, delete, sweep)"`
	Limit int    `default:"20" help:"Maximum runs to show"`
}
