package perftest_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vearutop/dperf/loadgen"
	"github.com/vearutop/dperf/perftest"
)

func TestMain(m *testing.M) {
	color.NoColor = true

	os.Exit(m.Run())
}

// sumService responds to {"a":3,"b":4} with {"c":7}.
func sumService() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			A int `json:"a"`
			B int `json:"b"`
		}

		_ = json.NewDecoder(r.Body).Decode(&req)

		_, _ = w.Write([]byte(`{"c":` + jsonInt(req.A+req.B) + "}\n"))
	}))
}

func jsonInt(i int) string {
	b, _ := json.Marshal(i)

	return string(b)
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))

	return p
}

func run(t *testing.T, f perftest.Flags) (int, string) {
	t.Helper()

	out := bytes.NewBuffer(nil)
	code := perftest.Run(context.Background(), loadgen.Flags{Threads: 4, Output: out}, f, nil)

	return code, out.String()
}

func TestRun_requiredFlags(t *testing.T) {
	code, out := run(t, perftest.Flags{Queries: "q.txt"})
	assert.Equal(t, perftest.ExitFailure, code)
	assert.Contains(t, out, "`--url` parameter is required")

	code, out = run(t, perftest.Flags{URL: "http://localhost"})
	assert.Equal(t, perftest.ExitFailure, code)
	assert.Contains(t, out, "`--queries` parameter is required")

	out2 := bytes.NewBuffer(nil)
	code = perftest.Run(context.Background(), loadgen.Flags{Output: out2},
		perftest.Flags{URL: "http://localhost", Queries: "q.txt"}, nil)
	assert.Equal(t, perftest.ExitFailure, code)
	assert.Contains(t, out2.String(), "`--threads` parameter must be positive")
}

func TestRun_unreadableQueries(t *testing.T) {
	code, out := run(t, perftest.Flags{URL: "http://localhost", Queries: filepath.Join(t.TempDir(), "missing.txt")})

	assert.Equal(t, perftest.ExitStartup, code)
	assert.Contains(t, out, "missing.txt")
}

func TestRun_noGoldens(t *testing.T) {
	srv := sumService()
	defer srv.Close()

	code, out := run(t, perftest.Flags{
		URL:         srv.URL,
		Queries:     writeFile(t, "queries.txt", "{\"a\":1,\"b\":2}\n{\"a\":3,\"b\":4}\n"),
		ContentType: "application/json",
	})

	assert.Equal(t, perftest.ExitOK, code, out)
	assert.Contains(t, out, "on 2 total queries.")
	assert.Contains(t, out, "Not comparing the results against the goldens")
}

func TestRun_goldens(t *testing.T) {
	srv := sumService()
	defer srv.Close()

	q := writeFile(t, "queries.txt", "{\"a\":1,\"b\":0}\n{\"a\":1,\"b\":1}\n{\"a\":1,\"b\":2}\n")

	code, out := run(t, perftest.Flags{
		URL:       srv.URL,
		Queries:   q,
		Goldens:   writeFile(t, "goldens.txt", "{\"c\":1}\n {\"c\":2} \n{\"c\":3}\n"),
		MaxErrors: 5,
	})
	assert.Equal(t, perftest.ExitOK, code, out)
	assert.Contains(t, out, "PASSED, results match on 3 queries.")

	code, out = run(t, perftest.Flags{
		URL:       srv.URL,
		Queries:   q,
		Goldens:   writeFile(t, "goldens.txt", "{\"c\":1}\n{\"c\":\"X\"}\n{\"c\":3}\n"),
		MaxErrors: 5,
	})
	assert.Equal(t, perftest.ExitFailure, code, out)
	assert.Contains(t, out, "FAILED, mismatch on 1 out of 3 queries, deltas in queries [2].")
}

func TestRun_goldensLengthMismatch(t *testing.T) {
	srv := sumService()
	defer srv.Close()

	code, out := run(t, perftest.Flags{
		URL:       srv.URL,
		Queries:   writeFile(t, "queries.txt", "{\"a\":1}\n{\"a\":2}\n{\"a\":3}\n"),
		Goldens:   writeFile(t, "goldens.txt", "{\"c\":1}\n{\"c\":2}\n"),
		MaxErrors: 5,
	})

	assert.Equal(t, perftest.ExitOK, code, out)
	assert.Contains(t, out, "level=warning")
	assert.Contains(t, out, "contains 3 lines, while `--goldens` contains 2 lines")
	assert.Contains(t, out, "PASSED, results match on 2 queries.")
}

func TestRun_writeGoldens(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)

		switch string(body) {
		case "empty":
		case "multi":
			_, _ = w.Write([]byte("\nline1\nline2\n"))
		default:
			_, _ = w.Write([]byte("ok"))
		}
	}))
	defer srv.Close()

	dst := filepath.Join(t.TempDir(), "goldens.txt")

	code, out := run(t, perftest.Flags{
		URL:          srv.URL,
		Queries:      writeFile(t, "queries.txt", "plain\nempty\nmulti\n"),
		WriteGoldens: dst,
	})
	assert.Equal(t, perftest.ExitOK, code, out)
	assert.Contains(t, out, "1 empty results were written as `[EMPTY]`")
	assert.Contains(t, out, "1 multi-line results were written as `[MULTILINE]`")
	assert.Contains(t, out, "Wrote 3 goldens to "+dst)

	written, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "ok\n[EMPTY]\n[MULTILINE]line1\\nline2\n", string(written))

	// Freshly written goldens match the same run.
	code, out = run(t, perftest.Flags{
		URL:       srv.URL,
		Queries:   writeFile(t, "queries.txt", "plain\nempty\nmulti\n"),
		Goldens:   dst,
		MaxErrors: 5,
	})
	assert.Equal(t, perftest.ExitOK, code, out)
	assert.Contains(t, out, "PASSED, results match on 3 queries.")
}

func TestRun_writeGoldensFailure(t *testing.T) {
	srv := sumService()
	defer srv.Close()

	code, out := run(t, perftest.Flags{
		URL:          srv.URL,
		Queries:      writeFile(t, "queries.txt", "{\"a\":1}\n"),
		WriteGoldens: filepath.Join(t.TempDir(), "no", "such", "dir", "goldens.txt"),
	})

	assert.Equal(t, perftest.ExitFailure, code, out)
	assert.Contains(t, out, "Failed to write `--write_goldens`")
}

func TestRun_goldensAndWriteGoldens(t *testing.T) {
	srv := sumService()
	defer srv.Close()

	goldens := writeFile(t, "goldens.txt", "{\"c\":1}\n")
	dst := filepath.Join(t.TempDir(), "new_goldens.txt")

	code, out := run(t, perftest.Flags{
		URL:          srv.URL,
		Queries:      writeFile(t, "queries.txt", "{\"a\":1}\n"),
		Goldens:      goldens,
		WriteGoldens: dst,
		MaxErrors:    5,
	})
	assert.Equal(t, perftest.ExitOK, code, out)
	assert.Contains(t, out, "Both `--goldens` and `--write_goldens` are set")
	assert.Contains(t, out, "PASSED")
	assert.FileExists(t, dst)

	code, out = run(t, perftest.Flags{
		URL:          srv.URL,
		Queries:      writeFile(t, "queries.txt", "{\"a\":1}\n"),
		Goldens:      goldens,
		WriteGoldens: goldens,
		MaxErrors:    5,
	})
	assert.Equal(t, perftest.ExitFailure, code, out)
	assert.Contains(t, out, "Refusing to overwrite")
}

func TestRun_transportFailure(t *testing.T) {
	srv := sumService()
	srv.Close()

	code, out := run(t, perftest.Flags{
		URL:     srv.URL,
		Queries: writeFile(t, "queries.txt", "a\nb\nc\nd\n"),
	})

	assert.Equal(t, perftest.ExitFailure, code)
	assert.Equal(t, 1, strings.Count(out, "level=error"), out)
	assert.Contains(t, out, "request failed: transport failure")
	assert.NotContains(t, out, "Done,")
}

func TestRun_failureAfterProgress(t *testing.T) {
	start := time.Now()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if time.Since(start) < 300*time.Millisecond {
			time.Sleep(5 * time.Millisecond)
			_, _ = w.Write([]byte("ok"))

			return
		}

		conn, _, err := w.(http.Hijacker).Hijack()
		if err == nil {
			_ = conn.Close()
		}
	}))
	defer srv.Close()

	code, out := run(t, perftest.Flags{
		URL:     srv.URL,
		Queries: writeFile(t, "queries.txt", strings.Repeat("q\n", 10000)),
	})

	assert.Equal(t, perftest.ExitFailure, code)
	assert.Contains(t, out, "request failed: transport failure")
	assert.NotContains(t, out, "queries in", "no progress is rendered on failure")
}

func TestRun_interruptHangingServer(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	time.AfterFunc(200*time.Millisecond, cancel)

	f := perftest.Flags{
		URL:     srv.URL,
		Queries: writeFile(t, "queries.txt", "a\nb\nc\nd\n"),
	}
	out := bytes.NewBuffer(nil)
	done := make(chan int, 1)

	go func() {
		done <- perftest.Run(ctx, loadgen.Flags{Threads: 4, Output: out}, f, nil)
	}()

	select {
	case code := <-done:
		assert.Equal(t, perftest.ExitFailure, code)
		assert.Contains(t, out.String(), "interrupted")
	case <-time.After(5 * time.Second):
		t.Fatal("run did not stop after interrupt")
	}
}

func TestRun_fast(t *testing.T) {
	srv := sumService()
	defer srv.Close()

	code, out := run(t, perftest.Flags{
		URL:       srv.URL,
		Queries:   writeFile(t, "queries.txt", "{\"a\":1,\"b\":0}\n{\"a\":1,\"b\":1}\n"),
		Goldens:   writeFile(t, "goldens.txt", "{\"c\":1}\n{\"c\":2}\n"),
		Headers:   []string{"X-Test: 1"},
		Fast:      true,
		MaxErrors: 5,
	})

	assert.Equal(t, perftest.ExitOK, code, out)
	assert.Contains(t, out, "PASSED, results match on 2 queries.")
}

func TestRun_invalidHeader(t *testing.T) {
	code, out := run(t, perftest.Flags{
		URL:     "http://localhost",
		Queries: writeFile(t, "queries.txt", "a\n"),
		Headers: []string{"broken"},
	})

	assert.Equal(t, perftest.ExitStartup, code)
	assert.Contains(t, out, "invalid header")
}
