// Package domain contains the core types of the plan-generation service:
// survey input, synthesized study plans, and the durable task record with
// its status state machine. Domain types enforce their own invariants and
// have no dependencies on storage or transport.
package domain
