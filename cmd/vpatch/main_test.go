package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/vango-dev/vpatch/internal/config"
	vperrors "github.com/vango-dev/vpatch/internal/errors"
	"github.com/vango-dev/vpatch/pkg/stream"
	"github.com/vango-dev/vpatch/pkg/vdom"
)

const statesYAML = `tag: ul
children:
  - tag: li
    children: [a]
  - tag: li
    children: [b]
---
tag: ul
attrs:
  class: list
children:
  - tag: li
    children: [a]
---
tag: ul
attrs:
  class: list
children:
  - tag: li
    children: [z]
  - tag: li
    children: [c]
`

func writeStates(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "states.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--no-color"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestDiffCommand(t *testing.T) {
	path := writeStates(t, statesYAML)

	out, err := execute(t, "diff", path)
	if err != nil {
		t.Fatalf("diff error: %v", err)
	}
	want := []string{
		"# 1 -> 2",
		`AddAttributes(0, {class="list"})`,
		"TruncateChildren(0, 1)",
		"# 2 -> 3",
		`AppendChildren(0, [<li>c</li>])`,
		`ChangeText(2, "z")`,
	}
	for _, w := range want {
		if !strings.Contains(out, w) {
			t.Errorf("diff output missing %q:\n%s", w, out)
		}
	}
}

func TestDiffWire(t *testing.T) {
	path := writeStates(t, "text: a\n---\ntext: a\n")

	out, err := execute(t, "diff", "--wire", path)
	if err != nil {
		t.Fatalf("diff error: %v", err)
	}
	if !strings.Contains(out, "(no patches)") {
		t.Errorf("diff output = %q, want (no patches)", out)
	}
	if !strings.Contains(out, "wire: ") || !strings.Contains(out, "0 patches, 0 targets") {
		t.Errorf("diff output = %q, want wire size line", out)
	}
}

func TestDiffErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code string
	}{
		{"one snapshot", []string{"diff", writeStates(t, "text: a\n")}, "V003"},
		{"missing file", []string{"diff", filepath.Join(t.TempDir(), "nope.yaml")}, "V004"},
		{"malformed", []string{"diff", writeStates(t, "children: []\n---\ntext: a\n")}, "V001"},
		{"bad log level", []string{"--log-level", "loud", "apply", writeStates(t, "text: a\n")}, "V031"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			if err == nil {
				t.Fatal("expected error")
			}
			if got := vperrors.Classify(err, "V042").Code; got != tt.code {
				t.Errorf("code = %s, want %s (%v)", got, tt.code, err)
			}
		})
	}
}

func TestApplyCommand(t *testing.T) {
	path := writeStates(t, statesYAML)

	out, err := execute(t, "apply", path)
	if err != nil {
		t.Fatalf("apply error: %v", err)
	}
	want := []string{
		"# 1\n<ul><li>a</li><li>b</li></ul>",
		"# 2: 2 patches",
		"# 3: 2 patches",
		"[-",
		"{+",
	}
	for _, w := range want {
		if !strings.Contains(out, w) {
			t.Errorf("apply output missing %q:\n%s", w, out)
		}
	}
}

func TestHTMLDiff(t *testing.T) {
	tests := []struct {
		before, after string
		lines         bool
		want          string
	}{
		{"<p>a</p>", "<p>b</p>", false, "<p>[-a-]{+b+}</p>"},
		{"<p>a</p>", "<p>a</p>", false, "<p>a</p>"},
		{"a\nb\n", "a\nc\n", true, "a\n[-b\n-]{+c\n+}"},
	}
	for _, tt := range tests {
		if got := htmlDiff(tt.before, tt.after, tt.lines, false); got != tt.want {
			t.Errorf("htmlDiff(%q, %q) = %q, want %q", tt.before, tt.after, got, tt.want)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version", "--short")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != version {
		t.Errorf("version = %q, want %q", out, version)
	}
}

func TestServeAndFollow(t *testing.T) {
	trees := []*vdom.VNode{
		vdom.Div(vdom.Text("0")),
		vdom.Div(vdom.Text("1")),
		vdom.Div(vdom.Class("x"), vdom.Text("2")),
	}
	cfg := config.New()
	cfg.Serve.Interval = config.Duration(10 * time.Millisecond)
	cfg.Serve.Loop = false

	reg := prometheus.NewRegistry()
	router, handler := newRouter(cfg, trees, discardLogger(), reg)
	srv := httptest.NewServer(router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, err := stream.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+cfg.Serve.WSPath, nil)
	if err != nil {
		t.Fatalf("Dial error: %v", err)
	}

	var out bytes.Buffer
	if err := follow(ctx, &out, c, 2, true); err != nil {
		t.Fatalf("follow error: %v", err)
	}
	for _, w := range []string{
		"# 0\n<div>0</div>",
		"# 1: 1 patches\n  ChangeText(1, \"1\")\n<div>1</div>",
		"# 2: 2 patches",
		`<div class="x">2</div>`,
	} {
		if !strings.Contains(out.String(), w) {
			t.Errorf("follow output missing %q:\n%s", w, out.String())
		}
	}

	srv.CloseClientConnections()
	handler.Wait()
	if n, err := testutil.GatherAndCount(reg, "vpatch_updater_cycles_total"); err != nil || n == 0 {
		t.Errorf("cycles metric count = %d, %v", n, err)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/healthz", nil))
	if rec.Body.String() != "ok\n" {
		t.Errorf("/healthz = %q", rec.Body.String())
	}
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "vpatch_updater_cycles_total") {
		t.Error("/metrics does not expose the updater metrics")
	}
}

func TestGlobalsConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, config.ConfigFileName)
	if err := os.WriteFile(path, []byte(`{"log": {"level": "warn"}}`), 0644); err != nil {
		t.Fatal(err)
	}

	g := &globals{configPath: path}
	cfg, err := g.config()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Log.Level = %q, want warn", cfg.Log.Level)
	}

	g = &globals{configPath: filepath.Join(dir, "missing.json")}
	if _, err := g.config(); !errors.Is(err, config.ErrNotFound) {
		t.Errorf("config() error = %v, want ErrNotFound", err)
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
