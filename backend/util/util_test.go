package util

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFileURL(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"/tmp/art/cover.jpg", "file:///tmp/art/cover.jpg"},
		{"/tmp/with space/a.png", "file:///tmp/with%20space/a.png"},
	}
	for _, tt := range tests {
		if got := FileURL(tt.input); got != tt.want {
			t.Errorf("FileURL(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestSanitizeText(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Plain Title", "Plain Title"},
		{"Beyonce\u0301", "Beyonc\u00e9"}, // decomposed accent composes under NFC
		{"bad\xffbyte", "bad�byte"},
	}
	for _, tt := range tests {
		if got := SanitizeText(tt.input); got != tt.want {
			t.Errorf("SanitizeText(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "config.toml")
	dst := filepath.Join(dir, "config.toml.bak")
	if err := os.WriteFile(src, []byte("[Bridge]\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := CopyFile(src, dst); err != nil {
		t.Fatalf("CopyFile: %v", err)
	}
	b, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "[Bridge]\n" {
		t.Errorf("copied contents = %q", b)
	}
}

func TestCancellableReader(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := NewCancellableReader(ctx, strings.NewReader("line one\nline two\n"))

	buf := make([]byte, 4)
	if n, err := r.Read(buf); err != nil || n != 4 {
		t.Fatalf("Read before cancel = %d, %v", n, err)
	}

	cancel()
	if _, err := r.Read(buf); !errors.Is(err, context.Canceled) {
		t.Errorf("Read after cancel err = %v, want context.Canceled", err)
	}
	if _, err := io.ReadAll(r); !errors.Is(err, context.Canceled) {
		t.Errorf("ReadAll after cancel err = %v, want context.Canceled", err)
	}
}
