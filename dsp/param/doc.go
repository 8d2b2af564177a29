// Package param defines the tube processor's parameter address space and a
// lock-free value table shared between the render thread and the control
// thread.
//
// Every value is stored as an independent atomic 32-bit word holding float32
// bits, so readers on either thread never block and never observe a torn
// value. There is no compound state: a reader may see a slightly stale value,
// which is harmless because all parameters are current-state snapshots.
package param
