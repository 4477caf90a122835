// Package internal is code only for consumption from within the stitch
// project.
package internal

import "time"

// Set at compile time with -ldflags.
var (
	Version = "unknown"
	Commit  = "unknown"
	Built   = "unknown"
)

// Ptr returns a pointer to any value.
func Ptr[T any](v T) *T { return &v }

// Time returns a pointer to the given time.
func Time(t time.Time) *time.Time { return &t }

// CurrentTimestamp returns the current time in UTC, rounded to nearest
// millisecond, which is the maximum precision the database persists.
func CurrentTimestamp() time.Time {
	return time.Now().UTC().Round(time.Millisecond)
}
