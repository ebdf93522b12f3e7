// Package align lines up column separators across dashboard rows.
//
// This package is internal to termdash. Rows are slices of [Cell] values;
// [Align] computes one width per column index from every row that has more
// than one cell and re-pads each cell so the separator token lands at the
// same horizontal position on every row that contains it.
//
// Widths are measured as visible terminal cells, so ANSI color sequences
// inside a cell do not count towards its width.
//
// The functions here are pure and safe for concurrent use.
package align
