package recon

import (
	"strings"

	"betamax-recon/config"
)

// DefaultTokens are the version-string markers of a pre-release build.
var DefaultTokens = []string{"beta", "test", "dev", "alpha"}

// Rule names reported by Explain.
const (
	RuleNone           = "none"
	RuleReservedPrefix = "reserved-prefix"
	RuleVersionToken   = "version-token"
)

// Verdict explains a classification decision.
type Verdict struct {
	Pass  bool
	Rule  string
	Match string
}

// Classifier decides whether an application looks like a beta build.
type Classifier struct {
	// ReservedPrefixes always pass, regardless of version or system flag.
	ReservedPrefixes []string
	// Tokens are matched case-insensitively against the version label.
	Tokens []string
}

// NewClassifier returns a Classifier using the default tokens and the given
// reserved prefixes (config.DefaultReservedPrefix when none are given).
func NewClassifier(reservedPrefixes ...string) *Classifier {
	if len(reservedPrefixes) == 0 {
		reservedPrefixes = []string{config.DefaultReservedPrefix}
	}
	return &Classifier{
		ReservedPrefixes: reservedPrefixes,
		Tokens:           DefaultTokens,
	}
}

// Classify reports whether app passes as a beta signal.
func (c *Classifier) Classify(app AppMetadata) bool {
	return c.Explain(app).Pass
}

// Explain is Classify with the rule that fired.
func (c *Classifier) Explain(app AppMetadata) Verdict {
	for _, prefix := range c.ReservedPrefixes {
		if prefix != "" && strings.HasPrefix(app.PackageID, prefix) {
			return Verdict{Pass: true, Rule: RuleReservedPrefix, Match: prefix}
		}
	}

	if app.IsSystemApp || app.VersionLabel == "" {
		return Verdict{Rule: RuleNone}
	}

	tokens := c.Tokens
	if tokens == nil {
		tokens = DefaultTokens
	}
	version := strings.ToLower(app.VersionLabel)
	for _, tok := range tokens {
		if tok != "" && strings.Contains(version, strings.ToLower(tok)) {
			return Verdict{Pass: true, Rule: RuleVersionToken, Match: tok}
		}
	}
	return Verdict{Rule: RuleNone}
}

func (v Verdict) String() string {
	if v.Match == "" {
		return v.Rule
	}
	return v.Rule + ":" + v.Match
}
