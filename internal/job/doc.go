// Package job owns the per-request unit of work: its working directory,
// uploaded inputs, lifecycle state, cooperative cancellation flag, and
// exactly-once cleanup. The supervisor sweep removes all job artifacts on
// process-wide failure.
package job
