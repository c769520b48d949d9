// Package mirror keeps dated snapshots of the rendered artifacts in a
// secondary store, independent of the git history.
package mirror

import "context"

// Provider saves artifact snapshots under an object name.
type Provider interface {
	// Save stores data at objectName, overwriting any previous snapshot
	// with the same name.
	Save(ctx context.Context, objectName string, data []byte) error

	// Close cleans up any client connections and resources.
	Close() error
}

// NoOpProvider discards snapshots. It is the default when no mirror is
// configured.
type NoOpProvider struct{}

// Save for NoOpProvider does nothing and returns nil.
func (*NoOpProvider) Save(context.Context, string, []byte) error { return nil }

// Close for NoOpProvider does nothing and returns nil.
func (*NoOpProvider) Close() error { return nil }
