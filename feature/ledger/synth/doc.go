// Package synth reconstructs games that no tier holds from the transactions
// that still reference them. Synthesized games carry type "Reconstructed" and
// are never written to the remote tier.
package synth
