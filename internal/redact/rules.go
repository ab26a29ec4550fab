package redact

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/vigil-io/vigil/patterns"
)

// RuleFile is the top-level YAML structure for a redaction rule file.
type RuleFile struct {
	Rules []RuleConfig `yaml:"rules"`
}

// RuleConfig is one pattern/replacement rule as declared in YAML.
type RuleConfig struct {
	Name        string `yaml:"name" json:"name"`
	Regex       string `yaml:"regex" json:"regex"`
	Replacement string `yaml:"replacement" json:"replacement"`
	Enabled     *bool  `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	// RequireMixedAlnum gates the rule on the matched token containing both
	// letters and digits. Used by the opaque-token catch-all so that long
	// natural words or pure digit runs are left alone.
	RequireMixedAlnum bool `yaml:"require_mixed_alnum,omitempty" json:"require_mixed_alnum,omitempty"`
}

// isEnabled returns true if the rule is enabled (defaults to true when nil).
func (r *RuleConfig) isEnabled() bool {
	if r.Enabled == nil {
		return true
	}
	return *r.Enabled
}

// Rule is a compiled, ready-to-apply redaction rule.
type Rule struct {
	Name              string
	Pattern           *regexp.Regexp
	Replacement       string
	RequireMixedAlnum bool
}

// DefaultRules returns the built-in redaction rules parsed from the embedded
// redaction.yaml file. This is the first layer in the merge chain.
func DefaultRules() ([]RuleConfig, error) {
	rf, err := ParseRuleFile(patterns.RedactionYAML())
	if err != nil {
		return nil, fmt.Errorf("parsing embedded redaction rules: %w", err)
	}
	return rf.Rules, nil
}

// ParseRuleFile parses redaction rule YAML bytes into a RuleFile.
func ParseRuleFile(data []byte) (*RuleFile, error) {
	var rf RuleFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parsing redaction rule YAML: %w", err)
	}
	return &rf, nil
}

// LoadRuleFile reads and parses a redaction rule YAML file from disk.
// Returns nil (not an error) if the file does not exist, so callers can
// treat a missing operator config as a no-op.
func LoadRuleFile(path string) (*RuleFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading redaction rule file %s: %w", path, err)
	}
	return ParseRuleFile(data)
}

// MergeRules performs a layered merge: defaults, then operator overrides, then
// per-instance custom rules. Later layers override earlier ones by matching on
// the rule Name field. New rules are PREPENDED rather than appended: rule order
// is redaction order, and added rules are by definition more specific than the
// built-in opaque-token catch-all that must run last.
func MergeRules(layers ...[]*RuleConfig) []RuleConfig {
	type slot struct {
		inDefaults bool
		idx        int
	}
	index := make(map[string]slot)
	var defaults []RuleConfig
	var added []RuleConfig

	for li, layer := range layers {
		for _, rc := range layer {
			if rc == nil {
				continue
			}
			if s, exists := index[rc.Name]; exists {
				if s.inDefaults {
					defaults[s.idx] = *rc
				} else {
					added[s.idx] = *rc
				}
				continue
			}
			if li == 0 {
				index[rc.Name] = slot{inDefaults: true, idx: len(defaults)}
				defaults = append(defaults, *rc)
			} else {
				index[rc.Name] = slot{idx: len(added)}
				added = append(added, *rc)
			}
		}
	}

	return append(added, defaults...)
}

// toPtrSlice converts []RuleConfig to []*RuleConfig for MergeRules.
func toPtrSlice(configs []RuleConfig) []*RuleConfig {
	ptrs := make([]*RuleConfig, len(configs))
	for i := range configs {
		ptrs[i] = &configs[i]
	}
	return ptrs
}

// CompileRules converts rule configs into the compiled []Rule slice applied at
// runtime, preserving order. Disabled rules are skipped.
func CompileRules(configs []RuleConfig) ([]Rule, error) {
	var rules []Rule
	for _, rc := range configs {
		if !rc.isEnabled() {
			continue
		}
		compiled, err := regexp.Compile(rc.Regex)
		if err != nil {
			return nil, fmt.Errorf("compiling redaction rule %q: %w", rc.Name, err)
		}
		rules = append(rules, Rule{
			Name:              rc.Name,
			Pattern:           compiled,
			Replacement:       rc.Replacement,
			RequireMixedAlnum: rc.RequireMixedAlnum,
		})
	}
	return rules, nil
}
