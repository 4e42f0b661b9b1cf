// Package status projects queue state into the presence text shown next to
// the bot. The text is a pure function of the worker state and queue depth;
// callers recompute it on every transition instead of mutating it in place.
package status

import "fmt"

// Text returns the presence line for the given worker state and number of
// waiting jobs.
func Text(busy bool, waiting int) string {
	if busy {
		return fmt.Sprintf("processing (and %d waiting)", waiting)
	}
	return "awaiting new requests"
}
