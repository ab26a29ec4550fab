//go:build integration
// +build integration

package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildBinary(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	binary := filepath.Join(dir, "vigil")
	cmd := exec.Command("go", "build", "-o", binary, "../..")
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "go build: %s", out)
	return binary
}

func runCmd(t *testing.T, binary string, stdin string, args ...string) string {
	t.Helper()
	cmd := exec.Command(binary, args...)
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "vigil %v: %s", args, out)
	return string(out)
}

func TestCLIFlow(t *testing.T) {
	binary := buildBinary(t)

	t.Run("version", func(t *testing.T) {
		out := runCmd(t, binary, "", "version")
		assert.Contains(t, out, "Vigil")
	})

	t.Run("doctor", func(t *testing.T) {
		out := runCmd(t, binary, "", "doctor", "--skip-port", "--json")
		var report struct {
			Status string `json:"status"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &report))
		assert.Equal(t, "pass", report.Status)
	})

	t.Run("redact_argument", func(t *testing.T) {
		out := runCmd(t, binary, "", "redact", "Bearer abc123def456ghi789")
		assert.Contains(t, out, "[REDACTED]")
		assert.NotContains(t, out, "abc123def456ghi789")
	})

	t.Run("redact_stdin", func(t *testing.T) {
		out := runCmd(t, binary, `api_key="integration5ecretvalue"`, "redact")
		assert.NotContains(t, out, "integration5ecretvalue")
	})
}

func TestServeFlow(t *testing.T) {
	binary := buildBinary(t)
	port := 18734
	base := fmt.Sprintf("http://127.0.0.1:%d", port)

	cmd := exec.Command(binary, "serve", "--port", fmt.Sprint(port))
	cmd.Env = append(os.Environ(), "VIGIL_RATE_GLOBAL_RPM=6000", "VIGIL_RATE_PER_CALLER_RPM=6000")
	require.NoError(t, cmd.Start())
	defer func() {
		_ = cmd.Process.Kill()
		_, _ = cmd.Process.Wait()
	}()

	require.Eventually(t, func() bool {
		resp, err := http.Get(base + "/health")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 10*time.Second, 100*time.Millisecond, "server did not come up")

	postJSON := func(t *testing.T, path string, body map[string]any) map[string]any {
		t.Helper()
		buf, err := json.Marshal(body)
		require.NoError(t, err)
		resp, err := http.Post(base+path, "application/json", bytes.NewReader(buf))
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Less(t, resp.StatusCode, 300, "POST %s", path)
		var out map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		return out
	}

	created := postJSON(t, "/v1/tools/start", map[string]any{
		"tool": "check_stock",
		"args": map[string]any{"sku": "A-100"},
	})
	eventID, _ := created["id"].(string)
	require.NotEmpty(t, eventID)

	postJSON(t, "/v1/tools/"+eventID+"/end", map[string]any{
		"result":  map[string]any{"available_quantity": -3},
		"success": true,
	})

	resp, err := http.Get(base + "/v1/summary")
	require.NoError(t, err)
	defer resp.Body.Close()
	var summary struct {
		Totals struct {
			AllTime int `json:"all_time"`
		} `json:"totals"`
		RecentAnomalies []struct {
			Type string `json:"type"`
		} `json:"recent_anomalies"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&summary))
	assert.Equal(t, 1, summary.Totals.AllTime)
	require.Len(t, summary.RecentAnomalies, 1)
	assert.Equal(t, "negative_domain_value", summary.RecentAnomalies[0].Type)
}
