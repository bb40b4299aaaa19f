package cmd

import (
	m "github.com/mouse-blink/ubsynth/internal/model"
)

func parsePaths(args []string) []m.Path {
	paths := make([]m.Path, 0, len(args))
	for _, arg := range args {
		paths = append(paths, m.Path(arg))
	}

	return paths
}
