// Package chk provides short-hand helpers for logging and testing an error
// in one expression, in the style `if err = f(); chk.E(err) { return }`.
package chk

import "aether.dev/pkg/utils/log"

// E logs an error at error level if it is non-nil and returns whether it was
// present, so callers can write `if err = f(); chk.E(err) { return }`.
func E(err error) bool {
	if err != nil {
		log.E.F("%v", err)
		return true
	}
	return false
}

// T logs an error at trace level if it is non-nil and returns whether it was
// present. Used for errors that are expected in normal operation (e.g. a
// missing optional file) and not worth cluttering the default log level.
func T(err error) bool {
	if err != nil {
		log.T.F("%v", err)
		return true
	}
	return false
}

// D logs an error at debug level if it is non-nil and returns whether it was
// present.
func D(err error) bool {
	if err != nil {
		log.D.F("%v", err)
		return true
	}
	return false
}

// W logs an error at warn level if it is non-nil and returns whether it was
// present.
func W(err error) bool {
	if err != nil {
		log.W.F("%v", err)
		return true
	}
	return false
}
