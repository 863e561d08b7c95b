// Package task manages the lifecycle of plan-generation jobs: a bounded
// worker pool consuming a buffered queue, per-owner admission control,
// heuristic progress heartbeats, startup recovery of interrupted jobs,
// and retention cleanup of terminal task records.
package task
