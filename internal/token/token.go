// Package token estimates LLM token counts from byte lengths using the
// ~4 bytes per token heuristic, which tracks real tokenizers closely
// enough for budget decisions over source code.
package token

// Estimate returns an approximate token count for a payload of byteLen
// bytes. Non-positive lengths estimate to zero.
func Estimate(byteLen int) int {
	if byteLen <= 0 {
		return 0
	}
	return byteLen / 4
}

// ForText returns an approximate token count for s.
func ForText(s string) int {
	return Estimate(len(s))
}
