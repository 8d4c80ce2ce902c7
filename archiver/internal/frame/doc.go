// Package frame handles the archived time-lapse frames on disk.
//
// A frame is named after the local time it was copied, truncated to the
// minute: YYMMDD_HHMM00.<ext>. Two copies within one minute share a name and
// the later one replaces the earlier. Because the year comes first, lexical
// order of frame names is chronological order.
package frame
