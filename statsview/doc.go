// Package statsview serves runtime statistics over HTTP when built with the
// statsview build tag. Without the tag Launch does nothing and Available
// reports false.
//
// After launch, graphs are viewable at:
//
//	localhost:12600/debug/statsview
package statsview
