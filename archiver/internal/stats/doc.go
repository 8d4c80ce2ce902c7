// Package stats keeps per-run counters for the archiver: how many iterations
// ran, how many produced a frame, and how many failed in the fetch or copy
// step. SuccessPct covers only the last 20 iterations so a long run reflects
// its recent health rather than its whole history.
package stats
