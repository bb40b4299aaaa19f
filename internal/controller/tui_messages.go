package controller

import (
	m "github.com/mouse-blink/ubsynth/internal/model"
)

// Message types.
type estimationMsg struct {
	estimates []m.Estimate
	err       error
}

type upcomingMsg struct {
	count int
}

type startSeedMsg struct {
	seed   string
	worker int
}

type completedSeedMsg struct {
	result m.FileResult
}

type concurrencyMsg struct {
	threads    int
	shardIndex int
	shards     int
}

type reportsMsg struct {
	reports []m.Report
	err     error
}

// finishedMsg tells a model that no further updates will arrive.
type finishedMsg struct{}

// List item types.
type seedItem struct {
	path       string
	candidates int
	eligible   int
	err        string
}

func (s seedItem) FilterValue() string {
	return s.path
}
