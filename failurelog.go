package mediavault

import "context"

// FailureLog durably records items that could not be deleted from the
// remote collection after retries were exhausted, so a later run or a
// human can act on exactly those items. Appends must be durable before
// returning; a dropped record would silently orphan a remote item.
type FailureLog interface {
	// Append records one failed deletion with its reason.
	Append(ctx context.Context, identifier, reason string) error
}
