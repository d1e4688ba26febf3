// Package scheduler dispatches translation batches in waves. At most
// concurrency batches are in flight; a wave is fully resolved before the
// next one starts, and results are written by absolute stream position so
// the output does not depend on completion order.
package scheduler
