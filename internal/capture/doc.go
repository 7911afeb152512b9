// Package capture implements the single-segment capture session and the
// segment scheduler that drives continuous scene recording runs.
package capture
