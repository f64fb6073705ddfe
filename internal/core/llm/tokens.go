package llm

// approxTokens is a cheap token estimator (~4 chars ≈ 1 token).
func approxTokens(s string) int {
	n := len([]rune(s))
	if n <= 0 {
		return 0
	}
	return (n + 3) / 4
}

// truncateTokens cuts s so approxTokens(s) <= maxTokens. maxTokens <= 0 disables it.
func truncateTokens(s string, maxTokens int) string {
	if maxTokens <= 0 || approxTokens(s) <= maxTokens {
		return s
	}
	return string([]rune(s)[:maxTokens*4])
}
