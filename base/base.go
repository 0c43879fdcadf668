// Package base holds definitions shared by all document sources and their drivers.
package base

// DB is a common interface implemented by all document store handles.
type DB interface {
	// Close releases the client handle. Reads must not be issued after Close.
	Close() error
}
