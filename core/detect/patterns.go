package detect

import "regexp"

// FindingType tags what a matcher detected.
type FindingType string

const (
	TypeAnthropicKey  FindingType = "anthropicKey"
	TypeOpenAIKey     FindingType = "openaiKey"
	TypeGitHubToken   FindingType = "githubToken"
	TypeAWSKey        FindingType = "awsKey"
	TypeSlackToken    FindingType = "slackToken"
	TypeGoogleAPIKey  FindingType = "googleApiKey"
	TypeJWT           FindingType = "jwt"
	TypePrivateKey    FindingType = "privateKeyBlock"
	TypeGenericSecret FindingType = "genericSecret"
	TypeEmail         FindingType = "email"
	TypePhone         FindingType = "phoneNumber"
	TypeSSN           FindingType = "ssn"
	TypeCreditCard    FindingType = "creditCard"
)

// Pattern is one independent matcher. New detectors are added to the table,
// never special-cased in the scan loop.
type Pattern struct {
	Type FindingType
	Expr *regexp.Regexp
}

var defaultPatterns = []Pattern{
	{TypeAnthropicKey, regexp.MustCompile(`sk-ant-[A-Za-z0-9_-]{16,}`)},
	{TypeOpenAIKey, regexp.MustCompile(`sk-(?:proj-)?[A-Za-z0-9]{32,}`)},
	{TypeGitHubToken, regexp.MustCompile(`\bgh[pousr]_[A-Za-z0-9]{36,}\b`)},
	{TypeAWSKey, regexp.MustCompile(`\bAKIA[0-9A-Z]{16}\b`)},
	{TypeSlackToken, regexp.MustCompile(`\bxox[baprs]-[A-Za-z0-9-]{10,}`)},
	{TypeGoogleAPIKey, regexp.MustCompile(`\bAIza[0-9A-Za-z_-]{35}`)},
	{TypeJWT, regexp.MustCompile(`\beyJ[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{5,}`)},
	{TypePrivateKey, regexp.MustCompile(`-----BEGIN (?:RSA |EC |DSA |OPENSSH |PGP )?PRIVATE KEY-----`)},
	{TypeGenericSecret, regexp.MustCompile(`(?i)\b(?:api[_-]?key|secret|token|password|passwd)\b\s*[:=]\s*['"]?[A-Za-z0-9_\-./+]{8,}`)},
	{TypeEmail, regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)},
	{TypePhone, regexp.MustCompile(`\b(?:\+?1[-. ]?)?\(?\d{3}\)?[-. ]\d{3}[-. ]\d{4}\b`)},
	{TypeSSN, regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)},
	{TypeCreditCard, regexp.MustCompile(`\b\d{4}[- ]?\d{4}[- ]?\d{4}[- ]?\d{4}\b`)},
}

// DefaultPatterns returns a copy of the built-in pattern table.
func DefaultPatterns() []Pattern {
	out := make([]Pattern, len(defaultPatterns))
	copy(out, defaultPatterns)
	return out
}

// PatternsExcept returns the default table minus the named types, for callers
// that disable detectors via configuration.
func PatternsExcept(disabled []string) []Pattern {
	if len(disabled) == 0 {
		return DefaultPatterns()
	}
	skip := make(map[FindingType]bool, len(disabled))
	for _, name := range disabled {
		skip[FindingType(name)] = true
	}
	out := make([]Pattern, 0, len(defaultPatterns))
	for _, pattern := range defaultPatterns {
		if !skip[pattern.Type] {
			out = append(out, pattern)
		}
	}
	return out
}
