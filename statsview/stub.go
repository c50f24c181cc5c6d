//go:build !statsview

package statsview

import "io"

// Launch is a no-op without the statsview build tag.
func Launch(_ io.Writer) {}

// Available reports whether the stats server was compiled in.
func Available() bool {
	return false
}
