// Package triage scores multi-domain business assessments: deterministic
// per-domain base scores, one batched reasoning-model enrichment call with a
// deterministic fallback, industry weighting, cross-domain impact
// propagation, and critical domain selection.
package triage
