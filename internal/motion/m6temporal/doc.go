// Package m6temporal analyzes joint-angle trajectories over a sliding
// window: trend (degrees per second, least-squares), jitter (standard
// deviation of frame-to-frame deltas), and single-frame jump anomalies.
// Angles are unwrapped onto a continuous domain before regression so a
// trajectory crossing the ±180° seam does not fake a huge slope.
package m6temporal
