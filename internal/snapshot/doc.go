// Package snapshot persists the indicator values of the last completed run.
// The next run reads them to derive trends, so a store is read once at the
// start of a run and written once at the end. RunLock serializes runs
// across processes sharing a data directory.
package snapshot
