// Package registry provides a generic, thread-safe name -> item registry.
// The archive package builds its extension -> handler factory table on it.
package registry
