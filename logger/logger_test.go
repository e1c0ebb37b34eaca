package logger

import (
	"bytes"
	"errors"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kbukum/redkit/config"
	"github.com/kbukum/redkit/process"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func testHooks() *process.Hooks {
	return process.NewHooks(process.WithExitFunc(func(int) {}))
}

// newTestLogger builds a logger writing under a temp dir with no environment
// toggles and a private exit-hook registry.
func newTestLogger(t *testing.T, env string, opts ...Option) (*Logger, string) {
	t.Helper()
	dir := t.TempDir()
	store := config.New(config.WithEnvironment(env))
	store.Set("redlog.dir", config.String(dir))
	base := []Option{WithToggles(Toggles{}), WithExitHooks(testHooks())}
	return New(store, append(base, opts...)...), dir
}

func TestNewDefaults(t *testing.T) {
	l, dir := newTestLogger(t, "production")

	cfg := l.Config()
	if cfg.Dir != dir {
		t.Errorf("expected dir from store %q, got %q", dir, cfg.Dir)
	}
	if cfg.Filename != DefaultFilename {
		t.Errorf("expected filename %q, got %q", DefaultFilename, cfg.Filename)
	}
	if cfg.Label != DefaultLabel {
		t.Errorf("expected label %q, got %q", DefaultLabel, cfg.Label)
	}
	if l.Environment() != "production" {
		t.Errorf("expected environment from store, got %q", l.Environment())
	}
}

func TestNewSettingsPrecedence(t *testing.T) {
	store := config.New(config.WithEnvironment("test"))
	store.Set("redlog.dir", config.String("/from/store"))
	store.Set("redlog.filename", config.String("store.log"))
	store.Set("redlog.label", config.String("worker"))

	l := New(store, WithToggles(Toggles{}), WithExitHooks(testHooks()),
		WithSettings(Settings{Filename: "explicit.log"}))

	cfg := l.Config()
	if cfg.Dir != "/from/store" || cfg.Filename != "explicit.log" || cfg.Label != "WORKER" {
		t.Errorf("unexpected settings %+v", cfg)
	}
}

func TestNewWithoutStore(t *testing.T) {
	t.Setenv("ENV", "staging")
	l := New(nil, WithToggles(Toggles{}), WithExitHooks(testHooks()))

	if l.Environment() != "staging" {
		t.Errorf("expected environment from ENV, got %q", l.Environment())
	}
	if l.Config() != DefaultSettings() {
		t.Errorf("expected default settings, got %+v", l.Config())
	}
}

func TestTogglesFromEnv(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  bool
	}{
		{"unset", "", false},
		{"one", "1", true},
		{"word", "yes", true},
		{"zero", "0", false},
		{"false", "false", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("RED_LOG_DEBUG", tc.value)
			t.Setenv("RED_LOG_STDOUT", "")
			t.Setenv("RED_LOG_DISABLED", "")
			got := TogglesFromEnv()
			if got.Debug != tc.want {
				t.Errorf("expected Debug=%v for %q, got %v", tc.want, tc.value, got.Debug)
			}
			if got.Stdout || got.Disabled {
				t.Errorf("expected other toggles off, got %+v", got)
			}
		})
	}
}

func TestDebugGating(t *testing.T) {
	tests := []struct {
		name    string
		env     string
		toggles Toggles
		want    int
	}{
		{"production without toggle", "production", Toggles{}, 0},
		{"production with toggle", "production", Toggles{Debug: true}, 1},
		{"development", "development", Toggles{}, 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			l, _ := newTestLogger(t, tc.env, WithToggles(tc.toggles))
			l.Debug("details")
			if got := l.Len(); got != tc.want {
				t.Errorf("expected %d entries, got %d", tc.want, got)
			}
		})
	}
}

func TestDisabled(t *testing.T) {
	var out bytes.Buffer
	l, _ := newTestLogger(t, "development",
		WithToggles(Toggles{Disabled: true, Stdout: true, Debug: true}), WithStdout(&out))

	l.Info("a")
	l.Debug("b")
	l.Start("x", "")
	l.End("x", "")

	if l.Len() != 0 || out.Len() != 0 {
		t.Errorf("expected nothing recorded, got %d entries and %q", l.Len(), out.String())
	}
}

func TestLevels(t *testing.T) {
	l, _ := newTestLogger(t, "development")
	l.Info("i")
	l.Debug("d")
	l.Warn("w")
	l.Error("e")
	l.Log(LevelWarn, "via log")

	want := []Level{LevelInfo, LevelDebug, LevelWarn, LevelError, LevelWarn}
	entries := l.Entries()
	if len(entries) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(entries))
	}
	for i, e := range entries {
		if e.Level != want[i] {
			t.Errorf("entry %d: expected level %s, got %s", i, want[i], e.Level)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"info": LevelInfo, "I": LevelInfo, "debug": LevelDebug,
		"WARNING": LevelWarn, "w": LevelWarn, "error": LevelError,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLevel(%q) = %s, %v; want %s", in, got, err, want)
		}
	}
	if _, err := ParseLevel("fatal"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestBodySerialization(t *testing.T) {
	l, _ := newTestLogger(t, "development")

	l.Info("plain")
	l.Info(map[string]any{"name": "café", "tag": "<a&b>"})
	l.Info(nil)
	l.Info(errors.New("boom"))
	l.Info(42)
	l.Info([]string{"x", "y"})
	l.Info(3 * time.Second)

	want := []string{
		"plain",
		`{"name":"café","tag":"<a&b>"}`,
		"",
		"boom",
		"42",
		`["x","y"]`,
		"3000000000",
	}
	entries := l.Entries()
	if len(entries) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(entries))
	}
	for i, e := range entries {
		if e.Body != want[i] {
			t.Errorf("entry %d: expected body %q, got %q", i, want[i], e.Body)
		}
	}
}

func TestExtraSerialization(t *testing.T) {
	l, _ := newTestLogger(t, "development")

	l.Info("none")
	l.Info("empty", map[string]any{})
	l.Info("merged", Fields("a", 1), Fields("b", "two", "a", 3))
	l.Info("error value", Fields("err", errors.New("disk full")))

	entries := l.Entries()
	want := []string{"", "", `{"a":3,"b":"two"}`, `{"err":"disk full"}`}
	for i, e := range entries {
		if e.Extra != want[i] {
			t.Errorf("entry %d: expected extra %q, got %q", i, want[i], e.Extra)
		}
	}
}

func TestLabels(t *testing.T) {
	l, _ := newTestLogger(t, "development")

	l.Info("default")
	l.SetLabel("verylonglabelname")
	l.Info("long")
	l.Info("override", Label("api"))
	l.Info("not a string", Fields(FieldLabel, 5))
	l.Info("empty override", Label(""))
	l.Info("unicode", Label("überwachungsdienst"))

	want := []string{"DEFAULT", "VERYLONGLA", "API", "VERYLONGLA", "VERYLONGLA", "ÜBERWACHUN"}
	for i, e := range l.Entries() {
		if e.Label != want[i] {
			t.Errorf("entry %d: expected label %q, got %q", i, want[i], e.Label)
		}
	}
}

func TestElapsedSincePreviousEntry(t *testing.T) {
	clock := newFakeClock()
	l, _ := newTestLogger(t, "production", WithClock(clock.Now))

	l.Info("first")
	clock.Advance(5 * time.Millisecond)
	l.Debug("dropped")
	clock.Advance(5 * time.Millisecond)
	l.Info("second")
	clock.Advance(1500 * time.Microsecond)
	l.Info("third")

	entries := l.Entries()
	want := []int64{0, 10, 2}
	for i, e := range entries {
		if e.Elapsed != want[i] {
			t.Errorf("entry %d: expected elapsed %d, got %d", i, want[i], e.Elapsed)
		}
	}
}

func TestStartEnd(t *testing.T) {
	clock := newFakeClock()
	l, _ := newTestLogger(t, "production", WithClock(clock.Now))

	l.Start("load", "loading users")
	clock.Advance(25 * time.Millisecond)
	l.End("load", "loaded users")

	entries := l.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Body != "loading users [load/0ms]" {
		t.Errorf("unexpected start body %q", entries[0].Body)
	}
	if entries[1].Body != "loaded users [load/25ms]" {
		t.Errorf("unexpected end body %q", entries[1].Body)
	}
	if entries[0].Level != LevelInfo || entries[1].Level != LevelInfo {
		t.Error("expected timer entries at Info level")
	}
}

func TestStartEndWallClock(t *testing.T) {
	l, _ := newTestLogger(t, "production")

	l.Start("x", "")
	time.Sleep(20 * time.Millisecond)
	l.End("x", "")

	body := l.Entries()[1].Body
	if !strings.HasPrefix(body, "[x/") || !strings.HasSuffix(body, "ms]") {
		t.Fatalf("unexpected marker %q", body)
	}
	ms, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(body, "[x/"), "ms]"))
	if err != nil {
		t.Fatalf("failed to parse elapsed from %q: %v", body, err)
	}
	if ms < 20 {
		t.Errorf("expected at least 20ms, got %d", ms)
	}
}

func TestEndWithoutStart(t *testing.T) {
	l, _ := newTestLogger(t, "production")

	l.End("missing", "")
	l.End("missing", "text")

	entries := l.Entries()
	if entries[0].Body != "[missing/0ms]" {
		t.Errorf("expected zero marker, got %q", entries[0].Body)
	}
	if entries[1].Body != "text [missing/0ms]" {
		t.Errorf("expected zero marker with text, got %q", entries[1].Body)
	}
}

func TestEndRemovesTimerAndRestartOverwrites(t *testing.T) {
	clock := newFakeClock()
	l, _ := newTestLogger(t, "production", WithClock(clock.Now))

	l.Start("t", "")
	clock.Advance(10 * time.Millisecond)
	l.Start("t", "")
	clock.Advance(3 * time.Millisecond)
	l.End("t", "")
	clock.Advance(3 * time.Millisecond)
	l.End("t", "")

	entries := l.Entries()
	if entries[2].Body != "[t/3ms]" {
		t.Errorf("expected restarted timer at 3ms, got %q", entries[2].Body)
	}
	if entries[3].Body != "[t/0ms]" {
		t.Errorf("expected removed timer to log 0ms, got %q", entries[3].Body)
	}
}

func TestTimersSurviveFlush(t *testing.T) {
	clock := newFakeClock()
	l, _ := newTestLogger(t, "production", WithClock(clock.Now))

	l.Start("job", "")
	if err := l.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	clock.Advance(40 * time.Millisecond)
	l.End("job", "")

	if got := l.Entries()[0].Body; got != "[job/40ms]" {
		t.Errorf("expected timer to outlive the flush, got %q", got)
	}
}

func TestConfigure(t *testing.T) {
	l, dir := newTestLogger(t, "production")

	l.Configure(Settings{Filename: "other.log"})
	cfg := l.Config()
	if cfg.Dir != dir || cfg.Filename != "other.log" || cfg.Label != DefaultLabel {
		t.Errorf("expected only filename to change, got %+v", cfg)
	}

	l.Configure(Settings{Label: "job"})
	if l.Config().Label != "JOB" {
		t.Errorf("expected normalized label, got %q", l.Config().Label)
	}
}

func TestStdoutMode(t *testing.T) {
	var out bytes.Buffer
	clock := newFakeClock()
	l, dir := newTestLogger(t, "production",
		WithToggles(Toggles{Stdout: true}), WithStdout(&out), WithClock(clock.Now))

	l.Info("hello", Label("cli"))
	clock.Advance(4 * time.Millisecond)
	l.Warn("again")

	if l.Len() != 0 {
		t.Errorf("expected nothing buffered in stdout mode, got %d", l.Len())
	}
	want := "(CLI)      2024-01-02 03:04:05 <I> hello \"{\\\"label\\\":\\\"cli\\\"}\" +0ms\n" +
		"(DEFAULT)  2024-01-02 03:04:05 <W> again +4ms\n"
	if out.String() != want {
		t.Errorf("unexpected stdout\n got: %q\nwant: %q", out.String(), want)
	}

	if err := l.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	assertNoFile(t, dir+"/"+DefaultFilename)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("closed pipe") }

func TestStdoutWriteErrorIsReported(t *testing.T) {
	var reported []error
	l, _ := newTestLogger(t, "production",
		WithToggles(Toggles{Stdout: true}), WithStdout(failingWriter{}),
		WithErrorHandler(func(err error) { reported = append(reported, err) }))

	l.Info("lost")

	if len(reported) != 1 {
		t.Fatalf("expected one reported error, got %d", len(reported))
	}
}

func TestConcurrentLogging(t *testing.T) {
	l, _ := newTestLogger(t, "production")

	var wg sync.WaitGroup
	for g := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 50 {
				l.Info("msg", Fields("g", g, "i", i))
			}
		}()
	}
	wg.Wait()

	if got := l.Len(); got != 500 {
		t.Errorf("expected 500 entries, got %d", got)
	}
}

func TestEntriesIsCopy(t *testing.T) {
	l, _ := newTestLogger(t, "production")
	l.Info("a")

	entries := l.Entries()
	entries[0].Body = "changed"
	if l.Entries()[0].Body != "a" {
		t.Error("expected Entries to return a copy")
	}
}

func TestDefaultLogger(t *testing.T) {
	l, _ := newTestLogger(t, "production")
	SetDefault(l)

	Info("from package")
	Warn("warned")
	Debug("dropped")
	Error("failed")
	Start("t", "")
	End("t", "")
	SetLabel("pkg")
	Info("labeled")

	if Default() != l {
		t.Fatal("expected SetDefault to replace the default logger")
	}
	entries := l.Entries()
	if len(entries) != 6 {
		t.Fatalf("expected 6 entries, got %d", len(entries))
	}
	if entries[5].Label != "PKG" || Config().Label != "PKG" {
		t.Errorf("expected package SetLabel to apply, got %q", entries[5].Label)
	}

	Configure(Settings{Filename: "pkg.log"})
	if !strings.HasSuffix(Path(), "pkg.log") {
		t.Errorf("expected package Path to follow Configure, got %q", Path())
	}
	if err := Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
}
