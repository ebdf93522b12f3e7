// Package render drives the dashboard's periodic redraw.
//
// This package is internal to termdash. It owns the lifecycle of the single
// background goroutine that repaints the terminal:
//
//	Stopped → Starting → Running → Stopping → Stopped
//
// The main components are:
//
//   - [Loop]: ticks at a fixed interval and invokes the frame hook
//   - [Hooks]: setup, per-tick frame and teardown callbacks supplied by the dashboard
//   - [State]: the lifecycle state of a Loop
//
// A Loop does not know what it draws. It isolates panics in the frame hook,
// tolerates transient write errors and stops ticking on persistent ones, which
// are then reported from [Loop.Stop].
package render
