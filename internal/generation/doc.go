// Package generation defines the study-plan synthesis boundary between
// the application core and external AI/LLM services, plus the
// deterministic fallback used when those services cannot be trusted.
package generation
