// Package bus implements the input side of a render cycle. An InputBus owns
// preallocated per-channel storage, pulls one block from an upstream Source
// on demand, and exposes the block to the kernel as planar slices.
//
// Once AllocateRenderResources has returned, PrepareInputBuffer never
// allocates. A failed or missing upstream pull zero-fills the block and
// reports ErrPullFailed so the caller can count it and keep rendering.
package bus
