// Package archiver implements the time-lapse frame collector: a bounded loop
// that copies the current satellite snapshot into a history of frames named
// by the minute they were taken.
//
// Per iteration i of N: write i to the output, optionally run the Fetcher
// into the source directory, pick the newest matching snapshot, copy it to
// <save_dir>/YYMMDD_HHMM00.<ext>, prune frames past retention, rewrite the
// metrics textfile. Then wait on the Scheduler unless i == N.
//
// Failures inside an iteration are skipped: a failed fetch means no frame
// for that iteration (a stale snapshot is not archived twice), a missing
// source or failed copy is logged, and the loop carries on after the usual
// wait. Only context cancellation stops a run early.
//
// The Scheduler, Fetcher and clock are injected so tests run without real
// waits or external tools.
package archiver
