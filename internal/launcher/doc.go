// Package launcher owns the dashboard launch pipeline.
//
// Ownership boundary:
// - step ordering: project dir -> activation -> spawn
// - launch error kinds and exit-code mapping
// - child environment assembly (activation result, then env_file fill-in)
//
// Pipeline order is strict: a failed step stops the launch and nothing after
// it runs. The dashboard child is spawned at most once per invocation.
//
// Launcher does not own the dashboard application; it hands over stdio and
// reports the child's own exit status.
package launcher
