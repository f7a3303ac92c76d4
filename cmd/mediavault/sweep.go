package main

import "github.com/jciesla/mediavault"

// Run executes the sweep command: download, then delete only what was
// verified in the archive this run.
func (c *SweepCmd) Run(deps *Dependencies) error {
	return executeRun(deps, mediavault.ModeSweep, c.RemoteFlags, c.StoreFlags, c.BatchSize, c.Workers)
}
