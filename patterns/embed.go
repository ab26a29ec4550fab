// Package patterns provides embedded default redaction rule definitions.
// The YAML file in this directory defines ordered pattern/replacement rules
// with Vigil extensions (enabled, require_mixed_alnum).
package patterns

import _ "embed"

//go:embed redaction.yaml
var redactionYAML []byte

// RedactionYAML returns the embedded default secret redaction rules.
func RedactionYAML() []byte { return redactionYAML }
