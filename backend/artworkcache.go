package backend

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/20after4/configdir"
	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/supersonic-app/nowplaying-bridge/sharedutil"
)

const partialSuffix = ".part"

var artworkExtensions = []string{".jpg", ".jpeg", ".png", ".webp"}

// ArtworkCache keeps local copies of album art so OS surfaces that only
// accept file paths (MPRIS, SMTC, NSImage) can display it.
// Files are named by a UUIDv5 of the source URL; the least recently
// used files beyond MaxFiles are deleted after each download.
type ArtworkCache struct {
	MaxFiles int
	Timeout  time.Duration

	dir    string
	client *retryablehttp.Client

	mu       sync.Mutex
	inflight map[string]chan struct{}
}

func NewArtworkCache(dir string, cfg ArtworkConfig) (*ArtworkCache, error) {
	if err := configdir.MakePath(dir); err != nil {
		return nil, errors.New("failed to create artwork cache dir")
	}
	client := retryablehttp.NewClient()
	client.RetryMax = cfg.RetryMax
	client.RetryWaitMin = 250 * time.Millisecond
	client.RetryWaitMax = 2 * time.Second
	client.Logger = nil
	return &ArtworkCache{
		MaxFiles: cfg.MaxCachedFiles,
		Timeout:  time.Duration(cfg.DownloadTimeoutSeconds) * time.Second,
		dir:      dir,
		client:   client,
		inflight: make(map[string]chan struct{}),
	}, nil
}

// PathFor returns the cache path an artwork URL is stored under.
func (a *ArtworkCache) PathFor(artURL string) string {
	id := uuid.NewSHA1(uuid.NameSpaceURL, []byte(artURL))
	return filepath.Join(a.dir, id.String()+artworkExtension(artURL))
}

// CachedPath returns the local path for artURL if it has been downloaded, else "".
func (a *ArtworkCache) CachedPath(artURL string) string {
	if artURL == "" {
		return ""
	}
	p := a.PathFor(artURL)
	if _, err := os.Stat(p); err == nil {
		return p
	}
	return ""
}

// Fetch returns the local path of artURL, downloading it first if needed.
// Concurrent calls for the same URL share one download.
func (a *ArtworkCache) Fetch(ctx context.Context, artURL string) (string, error) {
	if artURL == "" {
		return "", errors.New("no artwork URL")
	}
	dest := a.PathFor(artURL)

	for {
		if _, err := os.Stat(dest); err == nil {
			now := time.Now()
			_ = os.Chtimes(dest, now, now) // mark recently used
			return dest, nil
		}

		a.mu.Lock()
		wait, busy := a.inflight[artURL]
		if !busy {
			done := make(chan struct{})
			a.inflight[artURL] = done
			a.mu.Unlock()
			err := a.download(ctx, artURL, dest)
			a.mu.Lock()
			delete(a.inflight, artURL)
			a.mu.Unlock()
			close(done)
			if err != nil {
				return "", err
			}
			a.prune()
			return dest, nil
		}
		a.mu.Unlock()

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-wait:
			// the other download finished or failed; check the file again
			if _, err := os.Stat(dest); err != nil {
				return "", errors.New("artwork download failed")
			}
		}
	}
}

func (a *ArtworkCache) download(ctx context.Context, artURL, dest string) error {
	if a.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.Timeout)
		defer cancel()
	}
	ok, err := sharedutil.DownloadFileWithContext(ctx, a.client, artURL, dest)
	if err != nil {
		return err
	}
	if !ok {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return errors.New("artwork download incomplete")
	}
	return nil
}

// prune deletes the least recently used files beyond MaxFiles.
func (a *ArtworkCache) prune() {
	if a.MaxFiles <= 0 {
		return
	}
	entries, err := os.ReadDir(a.dir)
	if err != nil {
		log.Printf("error listing artwork cache: %v", err)
		return
	}
	files := sharedutil.FilterSlice(entries, func(e fs.DirEntry) bool {
		return e.Type().IsRegular() && !strings.HasSuffix(e.Name(), partialSuffix)
	})
	if len(files) <= a.MaxFiles {
		return
	}

	modTimes := make(map[string]time.Time, len(files))
	for _, f := range files {
		if info, err := f.Info(); err == nil {
			modTimes[f.Name()] = info.ModTime()
		}
	}
	sort.Slice(files, func(i, j int) bool {
		return modTimes[files[i].Name()].After(modTimes[files[j].Name()])
	})
	for _, f := range files[a.MaxFiles:] {
		if err := os.Remove(filepath.Join(a.dir, f.Name())); err != nil {
			log.Printf("error pruning artwork cache: %v", err)
		}
	}
}

func artworkExtension(artURL string) string {
	u, err := url.Parse(artURL)
	if err != nil {
		return ".jpg"
	}
	ext := strings.ToLower(path.Ext(u.Path))
	for _, e := range artworkExtensions {
		if ext == e {
			return ext
		}
	}
	return ".jpg"
}
