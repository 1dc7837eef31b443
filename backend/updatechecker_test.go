package backend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestTagFromReleaseURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://github.com/supersonic-app/nowplaying-bridge/releases/tag/v0.4.0", "v0.4.0"},
		{"https://github.com/supersonic-app/nowplaying-bridge/releases/tag/v0.4.0/", "v0.4.0"},
		{"https://github.com/supersonic-app/nowplaying-bridge/releases/latest", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := tagFromReleaseURL(tt.url); got != tt.want {
			t.Errorf("tagFromReleaseURL(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestCheckLatestVersionTag(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/releases/latest", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/releases/tag/v9.9.9", http.StatusFound)
	})
	mux.HandleFunc("/releases/tag/", func(w http.ResponseWriter, r *http.Request) {})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	u := NewUpdateChecker("v0.3.0", srv.URL+"/releases/latest")
	if got := u.CheckLatestVersionTag(context.Background()); got != "v9.9.9" {
		t.Errorf("CheckLatestVersionTag() = %q, want v9.9.9", got)
	}

	found := make(chan string, 1)
	u.OnUpdatedVersionFound = func(tag string) { found <- tag }
	u.CheckOnce(context.Background())
	if tag := <-found; tag != "v9.9.9" {
		t.Errorf("OnUpdatedVersionFound(%q)", tag)
	}
}
