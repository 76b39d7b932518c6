// Package newsletter reads the per-newsletter folder state: the config.yaml
// describing the group and its default questions, and the issue counter
// file that tracks which numbered issue is currently in flight.
//
// The issue counter is a bare integer stored as the entire file contents.
// Increments only happen during the first week of a cycle, are guarded by a
// file lock against concurrent cron ticks, and are idempotent within a
// cycle thanks to a sidecar marker recording the week that last advanced
// the counter.
package newsletter
