// Package control
// Author: momentics <momentics@gmail.com>
//
// Configuration, runtime metrics and debug introspection for hioload-udfbuf.
//
// Provides concurrent-safe state handling primitives including:
//   - Snapshot config reads, merged updates and typed accessors
//   - Reload listeners
//   - Metrics counters for allocators and merges
//   - Debug probe registration and state export
package control
