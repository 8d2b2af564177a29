// Package unit assembles a complete tube saturation effect instance: the
// kernel, its input bus, the render dispatcher and the parameter tree. It is
// the host-facing surface. Lifecycle calls log through log/slog; Render does
// not log.
package unit
