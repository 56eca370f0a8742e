package sidecar

import "github.com/lambda-feedback/watchdeck/internal/sidecar/supervisor"

type EventsConfig struct {
	// Buffer is the number of events buffered per subscriber before
	// further events are dropped for that subscriber.
	Buffer int `conf:"buffer"`
}

type DiagnosticsConfig struct {
	// History is the number of recent diagnostic records kept in memory.
	History int `conf:"history"`

	// Sentry forwards spawn failures and crashes to Sentry. It has no
	// effect unless a Sentry client has been initialised.
	Sentry bool `conf:"sentry"`
}

type Config struct {
	// Worker configures how the worker is started, stopped and written to.
	Worker supervisor.Config `conf:"worker"`

	// Events configures the event fan-out.
	Events EventsConfig `conf:"events"`

	// Diagnostics configures where diagnostic records end up.
	Diagnostics DiagnosticsConfig `conf:"diagnostics"`
}
