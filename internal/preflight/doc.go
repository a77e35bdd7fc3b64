// Package preflight owns launch diagnosis.
//
// Ownership boundary:
// - the named, ordered check registry behind dashctl doctor
// - pass/warn/fail verdicts with human detail
// - host facts (memory, disk at the project dir)
//
// Preflight never mutates the process environment and never spawns the
// dashboard; it only explains why a launch would or would not work.
package preflight
