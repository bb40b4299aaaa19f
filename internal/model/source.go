package model

import "path/filepath"

// Path represents a file system path.
type Path string

// Base returns the last element of the path.
func (p Path) Base() string {
	return filepath.Base(string(p))
}

// Source is a seed C program discovered on disk.
type Source struct {
	Origin Path
	Hash   string
	Size   int64
}
