// Package units names byte-size constants used for buffer and cache sizing
// throughout the database and encoder packages.
package units

const (
	Kb = 1 << 10
	Mb = 1 << 20
	Gb = 1 << 30
)
