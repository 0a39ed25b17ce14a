package chunker

// EstimateTokens gives a rough token count using a fixed ~4 chars/token
// ratio. The budget only has to bound oracle request size, not match a real
// vocabulary, so no tokenizer is involved.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	return (len(text) + 3) / 4
}
