// Package m5compensation detects compensatory movement patterns: the
// trunk, shoulder, and hip strategies subjects use to cheat a restricted
// joint through its range. Each rule produces a raw deviation in degrees
// or centimetres which is graded into a severity tier; a persistence
// filter then suppresses transient flickers so only sustained
// compensations surface as confirmed events.
package m5compensation
