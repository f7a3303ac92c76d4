package main

import "github.com/jciesla/mediavault"

// Run executes the download command.
func (c *DownloadCmd) Run(deps *Dependencies) error {
	return executeRun(deps, mediavault.ModeDownload, c.RemoteFlags, c.StoreFlags, c.BatchSize, c.Workers)
}
