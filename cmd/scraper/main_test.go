package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/require"
)

const (
	productURL  = "http://shop.test/Omega-3/dp/B0B15Q3HCQ"
	missingURL  = "http://shop.test/gone/dp/B0MISSING0"
	productPage = `<html><body>
<span id="productTitle">Omega-3 Fish Oil, Triple Strength</span>
<span class="a-price"><span class="a-offscreen">$34.99</span></span>
<a id="bylineInfo">Visit the Nordic Store</a>
</body></html>`
)

func execute(t *testing.T, transport http.RoundTripper, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	a := &app{stdout: &stdout, stderr: &stderr, transport: transport}
	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func mockShop() *httpmock.MockTransport {
	transport := httpmock.NewMockTransport()
	resp := httpmock.NewStringResponse(http.StatusOK, productPage)
	resp.Header.Set("Content-Type", "text/html; charset=utf-8")
	transport.RegisterResponder("GET", productURL, httpmock.ResponderFromResponse(resp))
	transport.RegisterResponder("GET", missingURL, httpmock.NewStringResponder(http.StatusNotFound, ""))
	return transport
}

func TestExtractRequiresURL(t *testing.T) {
	stdout, stderr, err := execute(t, nil, "extract")
	require.Error(t, err)
	require.Contains(t, stdout+stderr, "Usage:")
}

func TestExtractPrintsRecord(t *testing.T) {
	stdout, _, err := execute(t, mockShop(), "extract", productURL)
	require.NoError(t, err)

	var record map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &record))
	require.Equal(t, "Omega-3 Fish Oil, Triple Strength", record["title"])
	require.Equal(t, "$34.99", record["price"])
	require.Equal(t, "Visit the Nordic Store", record["brand"])
	require.Equal(t, "B0B15Q3HCQ", record["asin"])
	require.Equal(t, productURL, record["sourceUrl"])
}

func TestExtractSaveUsesTitleSlug(t *testing.T) {
	dir := t.TempDir()
	_, _, err := execute(t, mockShop(), "extract", productURL, "--save", "--output-dir", dir)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "omega-3-fish-oil-triple-strength-result.json"))
	require.NoError(t, err)
}

func TestExtractSaveWithExplicitName(t *testing.T) {
	dir := t.TempDir()
	_, _, err := execute(t, mockShop(), "extract", productURL, "--save", "--name", "omega", "--output-dir", dir)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "omega-result.json"))
	require.NoError(t, err)

	_, _, err = execute(t, mockShop(), "extract", productURL, "--save", "--name", "../escape", "--output-dir", dir)
	require.Error(t, err)
}

func TestExtractFailureExitsWithError(t *testing.T) {
	dir := t.TempDir()
	stdout, _, err := execute(t, mockShop(), "extract", missingURL, "--save", "--output-dir", dir)
	require.Error(t, err)
	require.Empty(t, stdout)

	raw, err := os.ReadFile(filepath.Join(dir, "B0MISSING0-result.json"))
	require.NoError(t, err)
	var failure map[string]any
	require.NoError(t, json.Unmarshal(raw, &failure))
	require.Equal(t, missingURL, failure["url"])
	require.Equal(t, "network", failure["kind"])
	require.Contains(t, failure["error"], "404")
}

func TestBatchCommand(t *testing.T) {
	dir := t.TempDir()
	targetsFile := filepath.Join(dir, "targets.yaml")
	require.NoError(t, os.WriteFile(targetsFile, []byte(`targets:
  - url: `+productURL+`
    name: omega-3
  - url: `+missingURL+`
    name: missing
`), 0o644))

	stdout, _, err := execute(t, mockShop(),
		"batch",
		"--targets", targetsFile,
		"--pace", "0s",
		"--batch-name", "supplements",
		"--csv-summary",
		"--output-dir", dir,
	)
	require.NoError(t, err)
	require.Contains(t, stdout, "2 targets, 1 succeeded, 1 failed")

	for _, name := range []string{"omega-3-result.json", "missing-result.json", "supplements-results.json", "supplements-results.csv"} {
		_, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err, name)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "supplements-results.json"))
	require.NoError(t, err)
	require.Less(t, strings.Index(string(raw), `"omega-3"`), strings.Index(string(raw), `"missing"`))
}

func TestBatchCommandRejectsBadTargets(t *testing.T) {
	dir := t.TempDir()
	targetsFile := filepath.Join(dir, "targets.yaml")
	require.NoError(t, os.WriteFile(targetsFile, []byte("- {url: 'http://shop.test/x', name: x}\n- {url: 'http://shop.test/y', name: x}\n"), 0o644))

	_, _, err := execute(t, mockShop(), "batch", "--targets", targetsFile, "--output-dir", dir)
	require.Error(t, err)
}

func TestInvalidConfigFails(t *testing.T) {
	_, _, err := execute(t, mockShop(), "extract", productURL, "--timeout", "-1s")
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid configuration")
}

func TestSlugCommand(t *testing.T) {
	stdout, _, err := execute(t, nil, "slug", "Café", "Déjà", "Vu!", "100%")
	require.NoError(t, err)
	require.Equal(t, "cafe-deja-vu-100\n", stdout)
}

func TestResultName(t *testing.T) {
	tests := []struct {
		name, title, asin, want string
	}{
		{"given", "Title", "B000000001", "given"},
		{"", "Crème Brûlée Torch", "B000000001", "creme-brulee-torch"},
		{"", "", "B000000001", "B000000001"},
		{"", "!!!", "", "product"},
		{"", strings.Repeat("word ", 40), "", strings.TrimRight(strings.Repeat("word-", 16), "-")},
	}
	for _, tt := range tests {
		if got := resultName(tt.name, tt.title, tt.asin); got != tt.want {
			t.Fatalf("resultName(%q, %q, %q) = %q, want %q", tt.name, tt.title, tt.asin, got, tt.want)
		}
	}
}
