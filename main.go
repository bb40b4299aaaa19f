// Package main is the entry point for ubsynth.
package main

import "github.com/mouse-blink/ubsynth/cmd"

func main() {
	cmd.Execute()
}
