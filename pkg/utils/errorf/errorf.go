// Package errorf wraps fmt.Errorf-style construction so call sites read as
// `err = errorf.E("thing failed: %v", cause)` instead of importing fmt
// directly for this one purpose everywhere.
package errorf

import "fmt"

// E constructs an error from a format string and arguments, same as
// fmt.Errorf.
func E(format string, args ...any) error { return fmt.Errorf(format, args...) }

// W wraps an existing error with additional context, using %w so
// errors.Is/errors.As still see through it.
func W(format string, args ...any) error { return fmt.Errorf(format, args...) }
