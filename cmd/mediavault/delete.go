package main

import (
	"fmt"

	"github.com/jciesla/mediavault"
)

// Run executes the delete command. Delete-only mode removes remote items
// without verifying a local copy, so it demands explicit confirmation.
func (c *DeleteCmd) Run(deps *Dependencies) error {
	if !c.Force {
		fmt.Fprintf(deps.Stderr, "error: use --force to confirm remote deletion without download\n")
		return mediavault.Errorf(mediavault.EINVALID, "use --force to confirm remote deletion without download")
	}
	return executeRun(deps, mediavault.ModeDelete, c.RemoteFlags, c.StoreFlags, c.BatchSize, 0)
}
