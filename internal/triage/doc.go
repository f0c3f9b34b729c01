// Package triage provides the business boundary for Vital's imaging triage
// system. It defines the Service (intake, queue, review, facility registry),
// Assembler (evidence retrieval and context packaging), Engine (reasoning
// with deterministic fallback), Recorder (evidence write-back), and the
// domain models they share.
package triage
