// Package async provides safe concurrent execution primitives for
// background tasks.
//
// # Overview
//
// SafeGo wraps fire-and-forget goroutines with panic recovery, timeout
// enforcement and error logging. WorkerPool and Batch cover bounded
// concurrent processing with graceful shutdown.
//
// # Use Cases
//
// Audit event emission, membership cache invalidation fan-out on team
// deletion, scheduled cleanup jobs.
package async
