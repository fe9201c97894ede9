// Package safego provides a panic-recovering goroutine launcher for background work.
package safego

import (
	"log/slog"
	"runtime/debug"
)

// Go launches fn in a new goroutine. A panic inside fn is recovered and
// logged with the task name and stack instead of crashing the process. Use it
// for fire-and-forget work such as error reporting, audit writes and cache
// warm-ups.
func Go(name string, fn func()) {
	go Run(name, fn)
}

// Run calls fn on the current goroutine with the same recovery as Go.
// It reports whether fn returned without panicking.
func Run(name string, fn func()) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("recovered panic in background task",
				"task", name,
				"panic", r,
				"stack", string(debug.Stack()),
			)
			ok = false
		}
	}()
	fn()
	return true
}
