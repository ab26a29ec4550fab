package monitor

import (
	"fmt"
	"strconv"
	"strings"
)

// inventoryFields is the allow-listed vocabulary of field names that
// represent inventory-like quantities. Scanning is restricted to this set:
// flagging any negative "quantity"-shaped key produces false positives on
// ledger-style data, so both the key vocabulary and the path context gate a
// finding.
var inventoryFields = map[string]struct{}{
	"stocked":            {},
	"reserved":           {},
	"available":          {},
	"incoming":           {},
	"on_hand":            {},
	"stock_on_hand":      {},
	"available_quantity": {},
	"reserved_quantity":  {},
	"incoming_quantity":  {},
	"stocked_quantity":   {},
	"quantity_available": {},
	"quantity_reserved":  {},
	"quantity_incoming":  {},
	"available_count":    {},
	"stock_count":        {},
}

// excludedPathStems are dotted-path segment prefixes naming domains where
// negative numbers are legitimate (ledger-style records). A finding whose
// path contains a segment starting with one of these is discarded.
var excludedPathStems = []string{
	"order", "return", "refund", "discount", "adjustment", "credit",
}

type domainFinding struct {
	path  string
	value float64
}

// detectDomainValues scans the event's parsed payload for negative values
// under allow-listed inventory field names on non-excluded paths. At most one
// anomaly is emitted per event, listing up to maxFindingPaths finding paths.
func (m *Monitor) detectDomainValues(ev *ToolCallEvent) []*Anomaly {
	if ev.parsedPayload == nil {
		return nil
	}

	var findings []domainFinding
	scanPayload(ev.parsedPayload, nil, &findings)
	if len(findings) == 0 {
		return nil
	}

	paths := make([]string, 0, maxFindingPaths)
	details := make([]map[string]any, 0, maxFindingPaths)
	for _, f := range findings {
		if len(paths) == maxFindingPaths {
			break
		}
		paths = append(paths, f.path)
		details = append(details, map[string]any{"path": f.path, "value": f.value})
	}

	return []*Anomaly{m.newAnomaly(
		AnomalyNegativeDomainValue,
		fmt.Sprintf("negative inventory value(s) in %s result: %s", ev.Tool, strings.Join(paths, ", ")),
		map[string]any{
			"event_id":      ev.ID,
			"tool":          ev.Tool,
			"finding_count": len(findings),
			"findings":      details,
		},
	)}
}

// scanPayload walks a parsed payload depth-first, accumulating findings for
// allow-listed negative fields on non-excluded dotted paths.
func scanPayload(v any, path []string, findings *[]domainFinding) {
	switch val := v.(type) {
	case map[string]any:
		for k, item := range val {
			child := append(path, k)
			if num, ok := asNumber(item); ok {
				if num < 0 && isInventoryField(k) && !isExcludedPath(child) {
					*findings = append(*findings, domainFinding{path: strings.Join(child, "."), value: num})
				}
				continue
			}
			scanPayload(item, child, findings)
		}
	case []any:
		for i, item := range val {
			scanPayload(item, append(path, strconv.Itoa(i)), findings)
		}
	}
}

func isInventoryField(name string) bool {
	_, ok := inventoryFields[strings.ToLower(name)]
	return ok
}

// isExcludedPath reports whether any segment of the dotted path starts with
// an excluded stem ("orders.3.available" is excluded, "inventory.available"
// is not).
func isExcludedPath(path []string) bool {
	for _, seg := range path {
		lower := strings.ToLower(seg)
		for _, stem := range excludedPathStems {
			if strings.HasPrefix(lower, stem) {
				return true
			}
		}
	}
	return false
}

// asNumber extracts a numeric value from the JSON-shaped payload types.
func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
