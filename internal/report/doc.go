// Package report turns simulation output into something a person can read:
// periodic structured log lines while a run is in progress, an ASCII plot of
// the kinetic energy series and a styled end-of-run summary.
package report
