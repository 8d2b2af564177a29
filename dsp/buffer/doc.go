// Package buffer provides preallocated per-channel sample storage for render
// blocks. Storage is sized once, outside the render path, and later calls
// only reslice it.
package buffer
