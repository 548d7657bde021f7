// Package m3frames builds per-body-segment orthonormal coordinate frames
// from smoothed landmarks, and memoizes them in a per-pipeline cache
// keyed by a quantized landmark signature so near-identical poses do not
// recompute geometry.
//
// Axis convention (normalized image space): X is the subject's forward
// direction, Y points up along the segment's anatomical line, Z points to
// the subject's right. All bases are right-handed with X = Y × Z.
package m3frames
