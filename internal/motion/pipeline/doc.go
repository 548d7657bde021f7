// Package pipeline wires the motion analysis stages into a per-session
// processing chain: landmark smoothing, anatomical frame resolution,
// joint measurement, compensation detection with persistence gating, and
// temporal trajectory statistics.
//
// One Pipeline serves one capture session on one goroutine. Frames flow
// through the stages synchronously so every derived value for a frame is
// consistent with that frame's landmarks; cross-session parallelism is
// achieved by running independent Pipeline instances.
package pipeline
