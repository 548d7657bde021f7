// Package m1pose defines the input boundary of the motion pipeline:
// per-frame skeletal landmark estimates produced by an external
// pose-estimation model, the landmark topologies (schemas) those models
// emit, and the shared error taxonomy for downstream geometry.
//
// A PoseFrame is immutable once constructed. The pipeline makes no
// assumption about coordinate normalization beyond consistency within a
// session; visibility is always in [0,1].
package m1pose
