package main

import (
	libretro "github.com/user-none/eblitui/libretro"
	"github.com/user-none/echip8/adapter"
)

func init() {
	libretro.RegisterFactory(&adapter.Factory{}, []libretro.RetropadMapping{
		{RetroID: libretro.JoypadA, BitID: 9},     // Key 5
		{RetroID: libretro.JoypadB, BitID: 10},    // Key 6
		{RetroID: libretro.JoypadStart, BitID: 4}, // Key 0
	})
}

func main() {}
