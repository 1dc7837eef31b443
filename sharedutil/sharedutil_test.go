package sharedutil

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-retryablehttp"
)

func TestFilterSlice(t *testing.T) {
	got := FilterSlice([]int{1, 2, 3, 4, 5, 6}, func(i int) bool { return i%2 == 0 })
	want := []int{2, 4, 6}
	if len(got) != len(want) {
		t.Fatalf("FilterSlice = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("FilterSlice[%d] = %d, want %d", i, got[i], want[i])
		}
	}
	if FilterSlice[int](nil, func(int) bool { return true }) != nil {
		t.Error("FilterSlice(nil) should be nil")
	}
}

func newTestClient() *retryablehttp.Client {
	c := retryablehttp.NewClient()
	c.RetryMax = 0
	c.Logger = nil
	return c
}

func TestDownloadFileWithContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("image data"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	dest := filepath.Join(dir, "art.jpg")
	ok, err := DownloadFileWithContext(context.Background(), newTestClient(), srv.URL+"/art.jpg", dest)
	if err != nil || !ok {
		t.Fatalf("download = %v, %v", ok, err)
	}
	b, err := os.ReadFile(dest)
	if err != nil || string(b) != "image data" {
		t.Errorf("downloaded content = %q, %v", b, err)
	}
	if _, err := os.Stat(dest + ".part"); !os.IsNotExist(err) {
		t.Error("partial file left behind")
	}

	missing := filepath.Join(dir, "missing.jpg")
	ok, err = DownloadFileWithContext(context.Background(), newTestClient(), srv.URL+"/missing", missing)
	if err == nil || ok {
		t.Errorf("download of missing file = %v, %v", ok, err)
	}
	if _, err := os.Stat(missing); !os.IsNotExist(err) {
		t.Error("file created for failed download")
	}
}

func TestDownloadFileCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("data"))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	dest := filepath.Join(t.TempDir(), "art.jpg")
	ok, err := DownloadFileWithContext(ctx, newTestClient(), srv.URL, dest)
	if ok || err != nil {
		t.Errorf("cancelled download = %v, %v; want false, nil", ok, err)
	}
}
