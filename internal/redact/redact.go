package redact

import (
	"regexp"
)

const placeholder = "[REDACTED]"

// valuePatterns keep their first group (the key) and mask the rest.
var valuePatterns = []*regexp.Regexp{
	// Connection-string credentials: Password=...; Pwd=...; AccountKey=...
	regexp.MustCompile(`(?i)((?:^|[;"'])\s*(?:password|pwd|accountkey|sharedaccesskey|sharedaccesssignature|access[_ ]?token)\s*=\s*)([^;"'\s]+)`),
	// Quoted assignments: secret = "....", ApiKey: "...."
	regexp.MustCompile(`(?i)(\b\w*(?:secret|token|password|passwd|credential|api[_-]?key|apikey)\w*"?\s*[:=]\s*@?\$?")([^"]{8,})`),
	// SAS query parameters
	regexp.MustCompile(`(?i)([?&]sig=)([A-Za-z0-9%/+=]{16,})`),
	// Bearer tokens
	regexp.MustCompile(`(?i)(\bBearer\s+)([A-Za-z0-9._~+/-]{20,}=*)`),
}

// tokenPatterns are masked whole.
var tokenPatterns = []*regexp.Regexp{
	// JWTs (three base64 segments separated by dots)
	regexp.MustCompile(`eyJ[A-Za-z0-9_-]{10,}\.eyJ[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}`),
	// Private key blocks
	regexp.MustCompile(`-----BEGIN\s+(?:RSA\s+|EC\s+)?PRIVATE KEY-----`),
	// AWS access key IDs
	regexp.MustCompile(`\bAKIA[0-9A-Z]{16}\b`),
	// GitHub tokens
	regexp.MustCompile(`\bgh[pousr]_[A-Za-z0-9_]{36,}`),
}

// Secrets replaces detected secrets in text with [REDACTED].
func Secrets(text string) string {
	result := text
	for _, pat := range valuePatterns {
		result = pat.ReplaceAllString(result, "${1}"+placeholder)
	}
	for _, pat := range tokenPatterns {
		result = pat.ReplaceAllLiteralString(result, placeholder)
	}
	return result
}

// Func returns Secrets when enabled and nil otherwise, ready to pass to
// review.NewAggregator.
func Func(enabled bool) func(string) string {
	if !enabled {
		return nil
	}
	return Secrets
}
