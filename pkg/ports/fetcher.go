package ports

import "context"

// ContentFetcher retrieves a hierarchical content graph from a remote API.
//
// Authenticate must be called before any other operation and may be called again to
// replace an expired session. EndSession is safe to call repeatedly.
// Implementations are not required to be safe for concurrent use; callers needing
// concurrency use independent instances.
type ContentFetcher interface {
	// Authenticate exchanges the configured credentials for a session.
	Authenticate(ctx context.Context) error

	// ListContainers returns the ids of every container visible to the session.
	ListContainers(ctx context.Context) ([]string, error)

	// GetContainerDetail returns the full container payload, including nested items
	// and their embedded sub-references.
	GetContainerDetail(ctx context.Context, id string) (map[string]any, error)

	// EndSession invalidates the session. It is a no-op when no session is open.
	EndSession(ctx context.Context) error
}

// FetcherFactory builds a fresh fetcher, typically one per fetch-translate cycle.
type FetcherFactory func() (ContentFetcher, error)
