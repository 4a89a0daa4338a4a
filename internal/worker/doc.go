// Package worker drives queued jobs through the process executor.
//
// A Dispatcher polls queue.Dequeue, runs each admitted job in its own
// executor.Executor and reports the terminal result back through Complete,
// Fail or Cancel. Failed exit-status runs are retried when auto-retry is
// enabled. A background loop purges expired jobs on the configured
// cleanup interval.
package worker
