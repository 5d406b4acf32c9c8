package pipeline

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aluiziolira/go-scrape-products/models"
)

func TestEncodeJSONFormatting(t *testing.T) {
	payload, err := EncodeJSON(map[string]any{"title": "Fish & Oil <1000mg>"})
	require.NoError(t, err)
	require.Equal(t, "{\n  \"title\": \"Fish & Oil <1000mg>\"\n}\n", string(payload))
}

func TestEncodeJSONRecordKeepsEmptyArrays(t *testing.T) {
	record := &models.ProductRecord{
		SourceURL:   "http://shop.test/x",
		ExtractedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	payload, err := EncodeJSON(record)
	require.NoError(t, err)
	require.Contains(t, string(payload), `"bulletPoints": []`)
	require.Contains(t, string(payload), `"images": []`)
	require.Contains(t, string(payload), `"extractedAt": "2025-01-01T00:00:00.000Z"`)
	require.NotContains(t, string(payload), `"title"`)
}

func TestFSWriterWritesAndReplaces(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	writer, err := NewFSWriter(dir)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, writer.Write(ctx, "item-result.json", []byte("one")))
	require.NoError(t, writer.Write(ctx, "item-result.json", []byte("two")))

	got, err := os.ReadFile(filepath.Join(dir, "item-result.json"))
	require.NoError(t, err)
	require.Equal(t, "two", string(got))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files must not linger")
}

func TestFSWriterRejectsTraversal(t *testing.T) {
	writer, err := NewFSWriter(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"../escape.json", "a/../../escape.json", "", "  "} {
		require.Error(t, writer.Write(context.Background(), key, []byte("x")), key)
	}
}

func TestFSWriterCreatesNestedDirs(t *testing.T) {
	dir := t.TempDir()
	writer, err := NewFSWriter(dir)
	require.NoError(t, err)
	require.NoError(t, writer.Write(context.Background(), "runs/2025/batch-results.json", []byte("{}\n")))

	_, err = os.Stat(filepath.Join(dir, "runs", "2025", "batch-results.json"))
	require.NoError(t, err)
}

func TestNewFSWriterRequiresDir(t *testing.T) {
	_, err := NewFSWriter(" ")
	require.Error(t, err)
}

func TestMemoryWriterCopiesPayload(t *testing.T) {
	writer := NewMemoryWriter()
	payload := []byte("abc")
	require.NoError(t, writer.Write(context.Background(), "k", payload))
	payload[0] = 'z'

	got, ok := writer.Get("k")
	require.True(t, ok)
	require.Equal(t, "abc", string(got))
	require.Equal(t, []string{"k"}, writer.Keys())
}

type failingWriter struct{ err error }

func (f failingWriter) Write(context.Context, string, []byte) error { return f.err }

func TestMultiWriterWritesAll(t *testing.T) {
	a, b := NewMemoryWriter(), NewMemoryWriter()
	mw := NewMultiWriter(a, nil, b)
	require.Equal(t, 2, mw.Len())

	require.NoError(t, mw.Write(context.Background(), "k", []byte("v")))
	for _, w := range []*MemoryWriter{a, b} {
		got, ok := w.Get("k")
		require.True(t, ok)
		require.Equal(t, "v", string(got))
	}
}

func TestMultiWriterReportsAnyFailure(t *testing.T) {
	boom := errors.New("boom")
	ok := NewMemoryWriter()
	mw := NewMultiWriter(failingWriter{err: boom}, ok)

	err := mw.Write(context.Background(), "k", []byte("v"))
	require.ErrorIs(t, err, boom)
	_, written := ok.Get("k")
	require.True(t, written, "remaining writers still run")

	require.Error(t, NewMultiWriter().Write(context.Background(), "k", nil))
}

func TestNewGCSWriterValidation(t *testing.T) {
	_, err := NewGCSWriter(nil, "bucket", "")
	require.Error(t, err)
}

func TestGCSWriterObjectName(t *testing.T) {
	w := &GCSWriter{bucket: "b", prefix: strings.Trim("/runs/daily/", "/")}
	require.Equal(t, "runs/daily/x-result.json", w.ObjectName("x-result.json"))
	require.Equal(t, "x-result.json", (&GCSWriter{bucket: "b"}).ObjectName("x-result.json"))
	require.Equal(t, "text/csv; charset=utf-8", contentType("a-results.csv"))
	require.Equal(t, "application/json; charset=utf-8", contentType("a-result.json"))
}

func TestEncodeSummaryCSV(t *testing.T) {
	result := models.NewBatchResult(3)
	result.Set("ok", models.Outcome{Record: &models.ProductRecord{
		Title:       "Omega 3, triple strength",
		Price:       "$24.99",
		Rating:      "4.6",
		ReviewCount: "1,024",
		ASIN:        "B000000001",
		Images:      []string{"a", "b"},
		SourceURL:   "http://shop.test/dp/B000000001",
	}})
	result.Set("blank", models.Outcome{Record: &models.ProductRecord{SourceURL: "http://shop.test/blank"}})
	result.Set("bad", models.Outcome{Failure: &models.ExtractionFailure{Error: "http status 404", URL: "http://shop.test/404"}})

	payload, err := EncodeSummaryCSV(result)
	require.NoError(t, err)

	rows, err := csv.NewReader(strings.NewReader(string(payload))).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	require.Equal(t, summaryHeader, rows[0])
	require.Equal(t, []string{"ok", "ok", "Omega 3, triple strength", "$24.99", "4.6", "1,024", "B000000001", "", "2", "", "http://shop.test/dp/B000000001"}, rows[1])
	require.Equal(t, "empty", rows[2][1])
	require.Equal(t, []string{"bad", "failed", "", "", "", "", "", "", "0", "http status 404", "http://shop.test/404"}, rows[3])
}

func TestSleepPacer(t *testing.T) {
	require.NoError(t, SleepPacer{}.Pause(context.Background()))

	start := time.Now()
	require.NoError(t, SleepPacer{Interval: 20 * time.Millisecond}.Pause(context.Background()))
	require.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := SleepPacer{Interval: time.Hour}.Pause(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestFSWriterRelativeBaseDir(t *testing.T) {
	t.Chdir(t.TempDir())
	writer, err := NewFSWriter(".")
	require.NoError(t, err)
	require.NoError(t, writer.Write(context.Background(), "product-result.json", []byte("{}\n")))

	_, err = os.Stat("product-result.json")
	require.NoError(t, err)
}

func TestFSWriterPathUnderFilesystemRoot(t *testing.T) {
	root := filepath.VolumeName(os.TempDir()) + string(filepath.Separator)
	w := &FSWriter{baseDir: root}

	got, err := w.Path("batch-results.json")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(root, "batch-results.json"), got)

	_, err = w.Path(".")
	require.Error(t, err)
}
