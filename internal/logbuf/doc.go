// Package logbuf holds the dashboard's log region state.
//
// This package is internal to termdash. It provides:
//
//   - [Buffer]: a bounded, append-only, thread-safe sequence of [Entry] values
//     that the render loop reads from on every tick
//   - [FileSink]: an append-safe writer for the optional log file, shared by
//     log producers and the render loop's diagnostic traces
//
// Users of the termdash library should not need to interact with this package
// directly. Logging is exposed through Dashboard.Log.
package logbuf
