// Package m4measure computes clinically meaningful joint angles from
// smoothed pose frames. Limb-segment vectors are projected into the
// anatomically defined plane of motion for each joint (resolved through
// the per-pipeline frame cache) and the signed angle is extracted via
// atan2 of the projected components in the local basis.
//
// A measurement that cannot be computed this frame is explicit
// (Valid == false), never a zero or NaN angle: callers must be able to
// distinguish "not measurable" from "measured as zero degrees".
package m4measure
