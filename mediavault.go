// Package mediavault provides a resilient batch synchronization engine for
// remote, rate-limited media stores. It iterates a remote collection in
// bounded batches, downloads items concurrently into a local archive with
// corrected timestamps, and deletes items from the remote store with
// retry/backoff against transient server faults.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., zip/, s3/, sqlite/).
package mediavault
