package cache

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit || data != nil {
		t.Error("NullCache.Get should always return a miss")
	}
	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	if _, hit, _ = c.Get(ctx, "key"); hit {
		t.Error("NullCache should not store data")
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(filepath.Join(t.TempDir(), "nested", "cache"))
	if err != nil {
		t.Fatalf("NewFileCache error: %v", err)
	}
	defer c.Close()

	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("empty cache reported a hit")
	}
	if err := c.Set(ctx, "k", []byte("<svg/>"), 0); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit || string(data) != "<svg/>" {
		t.Errorf("Get = %q, %v, %v", data, hit, err)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("deleted entry still present")
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete of missing key error: %v", err)
	}
}

func TestFileCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if err := c.Set(ctx, "k", []byte("v"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(2 * time.Millisecond)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired entry reported as hit")
	}
	if _, err := os.Stat(c.path("k")); !os.IsNotExist(err) {
		t.Error("expired entry file should be removed")
	}
}

func TestFileCache_CorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	path := c.path("k")
	_ = os.MkdirAll(filepath.Dir(path), 0o755)
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, hit, err := c.Get(ctx, "k")
	if hit || err != nil {
		t.Errorf("corrupt entry: hit=%v err=%v", hit, err)
	}
}

func TestFileCache_Clear(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	c, err := NewFileCache(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"a", "b", "c"} {
		_ = c.Set(ctx, k, []byte(k), 0)
	}
	if err := c.Clear(ctx); err != nil {
		t.Fatalf("Clear error: %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("Clear left %d entries", len(entries))
	}
	if c.Dir() != dir {
		t.Errorf("Dir() = %q", c.Dir())
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	if h1 != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	lk1 := k.LayoutKey("hash", LayoutKeyOpts{Engine: "dot"})
	lk2 := k.LayoutKey("hash", LayoutKeyOpts{Engine: "neato"})
	if lk1 == lk2 {
		t.Error("different engines should produce different layout keys")
	}
	if lk1 != k.LayoutKey("hash", LayoutKeyOpts{Engine: "dot"}) {
		t.Error("LayoutKey should be deterministic")
	}

	base := ArtifactKeyOpts{Engine: "dot", Format: "svg", AntiAlias: true, Settings: map[string]string{"rankdir": "LR", "splines": "ortho"}}
	tests := []struct {
		name string
		opts ArtifactKeyOpts
	}{
		{"format", ArtifactKeyOpts{Engine: "dot", Format: "png", AntiAlias: true, Settings: base.Settings}},
		{"anti-alias", ArtifactKeyOpts{Engine: "dot", Format: "svg", Settings: base.Settings}},
		{"settings", ArtifactKeyOpts{Engine: "dot", Format: "svg", AntiAlias: true}},
		{"options", ArtifactKeyOpts{Engine: "dot", Format: "svg", AntiAlias: true, Settings: base.Settings, Options: map[string]string{"dpi": "144"}}},
	}
	baseKey := k.ArtifactKey("hash", base)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if k.ArtifactKey("hash", tt.opts) == baseKey {
				t.Errorf("changing %s should change the artifact key", tt.name)
			}
		})
	}

	// Map ordering does not matter.
	same := ArtifactKeyOpts{Engine: "dot", Format: "svg", AntiAlias: true, Settings: map[string]string{"splines": "ortho", "rankdir": "LR"}}
	if k.ArtifactKey("hash", same) != baseKey {
		t.Error("equal settings maps should give equal keys")
	}
	if k.ArtifactKey("other", base) == baseKey {
		t.Error("different graph hashes should give different keys")
	}
}

func TestScopedKeyer(t *testing.T) {
	scoped := NewScopedKeyer(NewDefaultKeyer(), "gvbind:test:")
	inner := NewDefaultKeyer()

	opts := ArtifactKeyOpts{Engine: "dot", Format: "svg"}
	if got, want := scoped.ArtifactKey("h", opts), "gvbind:test:"+inner.ArtifactKey("h", opts); got != want {
		t.Errorf("ArtifactKey = %q, want %q", got, want)
	}
	if got := scoped.LayoutKey("h", LayoutKeyOpts{}); got[:12] != "gvbind:test:" {
		t.Errorf("LayoutKey should be prefixed: %s", got)
	}
}

func TestScopedKeyerNilInner(t *testing.T) {
	scoped := NewScopedKeyer(nil, "p:")
	want := "p:" + NewDefaultKeyer().LayoutKey("h", LayoutKeyOpts{Engine: "dot"})
	if got := scoped.LayoutKey("h", LayoutKeyOpts{Engine: "dot"}); got != want {
		t.Errorf("unexpected key with nil inner: %s", got)
	}
}

var errTransient = errors.New("connection reset")

func TestRetryableError(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}
	err := Retryable(errTransient)
	if !IsRetryable(err) {
		t.Error("IsRetryable should return true for wrapped error")
	}
	if err.Error() != errTransient.Error() {
		t.Errorf("error message should be preserved: %s", err)
	}
	if !errors.Is(err, errTransient) {
		t.Error("Retryable should unwrap to the cause")
	}
	if IsRetryable(errTransient) {
		t.Error("IsRetryable should return false for unwrapped error")
	}
}

func TestRetryWithBackoff(t *testing.T) {
	retryDelay = time.Millisecond
	t.Cleanup(func() { retryDelay = 250 * time.Millisecond })
	ctx := context.Background()

	calls := 0
	err := RetryWithBackoff(ctx, func() error {
		calls++
		return nil
	})
	if err != nil || calls != 1 {
		t.Errorf("success: err=%v calls=%d", err, calls)
	}

	calls = 0
	err = RetryWithBackoff(ctx, func() error {
		calls++
		return errTransient
	})
	if err != errTransient || calls != 1 {
		t.Errorf("non-retryable: err=%v calls=%d", err, calls)
	}

	calls = 0
	err = RetryWithBackoff(ctx, func() error {
		calls++
		if calls < 2 {
			return Retryable(errTransient)
		}
		return nil
	})
	if err != nil || calls != 2 {
		t.Errorf("retry once: err=%v calls=%d", err, calls)
	}

	calls = 0
	err = RetryWithBackoff(ctx, func() error {
		calls++
		return Retryable(errTransient)
	})
	if !IsRetryable(err) || calls != 3 {
		t.Errorf("exhausted: err=%v calls=%d", err, calls)
	}
}

func TestRetryWithBackoffContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := RetryWithBackoff(ctx, func() error {
		return Retryable(errTransient)
	})
	if err != context.Canceled {
		t.Errorf("should return context error: %v", err)
	}
}

func TestClassify(t *testing.T) {
	opErr := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
	if !IsRetryable(classify(opErr)) {
		t.Error("network errors should be retryable")
	}
	if IsRetryable(classify(errTransient)) {
		t.Error("plain errors should not be retryable")
	}
	if classify(nil) != nil {
		t.Error("classify(nil) should be nil")
	}
}
