// Package render is the real-time entry point of a render cycle. A
// Dispatcher pulls one block through an InputBus, runs the tube Kernel into
// the caller's output slices and reports a Status. It never blocks,
// allocates or logs; statistics are published through atomic counters for
// the control goroutine.
package render
