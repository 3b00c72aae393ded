// File: internal/concurrency/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Worker pool used to process partitions in-process. Each task owns the
// buffers it creates; nothing here synchronises access to them.
package concurrency
