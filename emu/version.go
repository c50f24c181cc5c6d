package emu

// Core identification reported to frontends.
const (
	Name    = "echip8"
	Version = "0.1.0"
)
