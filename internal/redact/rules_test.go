package redact

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRules_ParseAndCompile(t *testing.T) {
	configs, err := DefaultRules()
	require.NoError(t, err)
	require.NotEmpty(t, configs)

	rules, err := CompileRules(configs)
	require.NoError(t, err)
	assert.Len(t, rules, len(configs), "all default rules should be enabled")

	// The opaque-token catch-all must run last so prefix-preserving rules win.
	assert.Equal(t, "opaque_token", rules[len(rules)-1].Name)
	assert.True(t, rules[len(rules)-1].RequireMixedAlnum)
}

func TestParseRuleFile_Invalid(t *testing.T) {
	_, err := ParseRuleFile([]byte("rules: [not a mapping"))
	require.Error(t, err)
}

func TestLoadRuleFile_Missing(t *testing.T) {
	rf, err := LoadRuleFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Nil(t, rf)
}

func TestLoadRuleFile_FromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`rules:
  - name: "ticket_id"
    regex: 'TKT-[0-9]{6}'
    replacement: "[REDACTED:TICKET]"
`), 0o600))

	rf, err := LoadRuleFile(path)
	require.NoError(t, err)
	require.NotNil(t, rf)
	require.Len(t, rf.Rules, 1)
	assert.Equal(t, "ticket_id", rf.Rules[0].Name)
}

func TestMergeRules_OverrideByName(t *testing.T) {
	defaults, err := DefaultRules()
	require.NoError(t, err)

	disabled := false
	override := []*RuleConfig{{
		Name:        "jwt",
		Regex:       `x`,
		Replacement: "unused",
		Enabled:     &disabled,
	}}

	merged := MergeRules(toPtrSlice(defaults), override)
	assert.Len(t, merged, len(defaults), "override must replace, not add")

	var found *RuleConfig
	for i := range merged {
		if merged[i].Name == "jwt" {
			found = &merged[i]
		}
	}
	require.NotNil(t, found)
	assert.False(t, found.isEnabled())
}

func TestMergeRules_NewRulesRunBeforeDefaults(t *testing.T) {
	defaults, err := DefaultRules()
	require.NoError(t, err)

	extra := []*RuleConfig{{
		Name:        "internal_id",
		Regex:       `EMP-[0-9]{4}`,
		Replacement: "[REDACTED:EMP]",
	}}

	merged := MergeRules(toPtrSlice(defaults), extra)
	require.Len(t, merged, len(defaults)+1)
	assert.Equal(t, "internal_id", merged[0].Name)
	assert.Equal(t, "opaque_token", merged[len(merged)-1].Name)
}

func TestCompileRules_SkipsDisabled(t *testing.T) {
	disabled := false
	rules, err := CompileRules([]RuleConfig{
		{Name: "on", Regex: "a", Replacement: "b"},
		{Name: "off", Regex: "c", Replacement: "d", Enabled: &disabled},
	})
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, "on", rules[0].Name)
}

func TestCompileRules_BadRegex(t *testing.T) {
	_, err := CompileRules([]RuleConfig{{Name: "bad", Regex: "([unclosed"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad")
}
