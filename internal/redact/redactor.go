// Package redact scrubs credential-shaped values from strings and from
// arbitrary JSON-shaped structures before they are retained or surfaced.
//
// Redaction is irreversible: matched substrings are replaced with fixed
// placeholders. Rules are regex-based and layered (embedded defaults, an
// optional operator rule file, per-instance custom rules), with specific
// prefix-preserving rules running before a generic opaque-token catch-all.
package redact

import (
	"fmt"
	"strings"
)

// Placeholder is the fixed replacement marker used for sensitive map values
// and as the default substitution text in redaction rules.
const Placeholder = "[REDACTED]"

// defaultSensitiveKeys are map keys whose values are replaced outright during
// deep redaction, regardless of content. Matching is case-insensitive and
// ignores "-", "_" and space separators.
var defaultSensitiveKeys = []string{
	"authorization", "api-key", "api-secret", "token", "access-token",
	"refresh-token", "id-token", "session-token", "password", "passwd", "pwd",
	"secret", "client-secret", "private-key", "cookie", "set-cookie",
	"credential", "credentials", "bearer",
}

// Redactor applies ordered pattern rules to strings and walks structured
// values replacing sensitive content. A zero-config Redactor (from
// MustNewRedactor) uses the embedded default rules.
type Redactor struct {
	rules         []Rule
	sensitiveKeys map[string]struct{}
}

// Option configures a Redactor via the functional options pattern.
type Option func(*config)

type config struct {
	ruleFile      string
	customRules   []RuleConfig
	sensitiveKeys []string
}

// WithRuleFile loads additional rules from an operator redaction.yaml file.
// If the file does not exist, it is silently skipped.
func WithRuleFile(path string) Option {
	return func(c *config) { c.ruleFile = path }
}

// WithCustomRules adds per-instance rule definitions. Custom rules override
// same-named defaults in place; new names run before the defaults.
func WithCustomRules(rules []RuleConfig) Option {
	return func(c *config) { c.customRules = rules }
}

// WithSensitiveKeys adds map keys (beyond the built-in set) whose values are
// replaced outright during deep redaction.
func WithSensitiveKeys(keys []string) Option {
	return func(c *config) { c.sensitiveKeys = keys }
}

// NewRedactor creates a Redactor. Without options it uses the embedded
// defaults. Options layer operator and per-instance rules on top.
func NewRedactor(opts ...Option) (*Redactor, error) {
	var cfg config
	for _, o := range opts {
		o(&cfg)
	}

	defaults, err := DefaultRules()
	if err != nil {
		return nil, fmt.Errorf("loading default redaction rules: %w", err)
	}

	var fileRules []*RuleConfig
	if cfg.ruleFile != "" {
		rf, err := LoadRuleFile(cfg.ruleFile)
		if err != nil {
			return nil, fmt.Errorf("loading redaction rule file: %w", err)
		}
		if rf != nil {
			fileRules = toPtrSlice(rf.Rules)
		}
	}

	var customRules []*RuleConfig
	if len(cfg.customRules) > 0 {
		customRules = toPtrSlice(cfg.customRules)
	}

	merged := MergeRules(toPtrSlice(defaults), fileRules, customRules)
	compiled, err := CompileRules(merged)
	if err != nil {
		return nil, fmt.Errorf("compiling redaction rules: %w", err)
	}

	keys := make(map[string]struct{}, len(defaultSensitiveKeys)+len(cfg.sensitiveKeys))
	for _, k := range defaultSensitiveKeys {
		keys[normalizeKey(k)] = struct{}{}
	}
	for _, k := range cfg.sensitiveKeys {
		keys[normalizeKey(k)] = struct{}{}
	}

	return &Redactor{rules: compiled, sensitiveKeys: keys}, nil
}

// MustNewRedactor is like NewRedactor but panics on error. Useful for
// zero-config startup where the embedded defaults are expected to always
// compile.
func MustNewRedactor(opts ...Option) *Redactor {
	r, err := NewRedactor(opts...)
	if err != nil {
		panic(fmt.Sprintf("redact.NewRedactor: %v", err))
	}
	return r
}

// Strings applies every rule in order to text and returns the scrubbed form.
// Rules with RequireMixedAlnum only replace matches containing at least one
// letter and one digit.
func (r *Redactor) Strings(text string) string {
	if text == "" {
		return text
	}
	for _, rule := range r.rules {
		if rule.RequireMixedAlnum {
			text = rule.Pattern.ReplaceAllStringFunc(text, func(match string) string {
				if !hasMixedAlnum(match) {
					return match
				}
				return rule.Pattern.ReplaceAllString(match, rule.Replacement)
			})
			continue
		}
		text = rule.Pattern.ReplaceAllString(text, rule.Replacement)
	}
	return text
}

// isSensitiveKey reports whether a map key names a credential-bearing field.
func (r *Redactor) isSensitiveKey(key string) bool {
	_, ok := r.sensitiveKeys[normalizeKey(key)]
	return ok
}

// normalizeKey lowercases a key and strips "-", "_" and space separators so
// that "API_Key", "api-key" and "apikey" all match the same entry.
func normalizeKey(key string) string {
	var b strings.Builder
	b.Grow(len(key))
	for _, ch := range strings.ToLower(key) {
		if ch == '-' || ch == '_' || ch == ' ' {
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}

// hasMixedAlnum reports whether s contains at least one letter and one digit.
func hasMixedAlnum(s string) bool {
	var hasLetter, hasDigit bool
	for _, ch := range s {
		switch {
		case ch >= '0' && ch <= '9':
			hasDigit = true
		case (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z'):
			hasLetter = true
		}
		if hasLetter && hasDigit {
			return true
		}
	}
	return false
}
