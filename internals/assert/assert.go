// Package assert provides startup invariant checks. Use only for conditions
// that make continuing pointless, never for recoverable errors.
package assert

import "fmt"

// Assert panics with msg when condition does not hold.
func Assert(condition bool, msg string, other ...any) {
	if !condition {
		if len(other) > 0 {
			panic(fmt.Sprint(append([]any{msg}, other...)...))
		}
		panic(msg)
	}
}

// AssertNil panics with msg when value is a non-nil error or value.
func AssertNil(value any, msg string, other ...any) {
	Assert(value == nil, msg, other...)
}
