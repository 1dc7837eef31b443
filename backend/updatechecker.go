package backend

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// UpdateChecker finds the newest release tag by following the redirect
// of the "latest release" URL.
type UpdateChecker struct {
	OnUpdatedVersionFound func(tag string)

	latestReleaseURL string
	appVersionTag    string
	client           *retryablehttp.Client
}

func NewUpdateChecker(appVersionTag, latestReleaseURL string) *UpdateChecker {
	client := retryablehttp.NewClient()
	client.RetryMax = 1
	client.Logger = nil
	client.HTTPClient.Timeout = 10 * time.Second
	return &UpdateChecker{
		appVersionTag:    appVersionTag,
		latestReleaseURL: latestReleaseURL,
		client:           client,
	}
}

// CheckOnce checks for a newer release on a new goroutine.
func (u *UpdateChecker) CheckOnce(ctx context.Context) {
	go func() {
		t := u.CheckLatestVersionTag(ctx)
		if t != "" && t != u.appVersionTag && u.OnUpdatedVersionFound != nil {
			u.OnUpdatedVersionFound(t)
		}
	}()
}

// CheckLatestVersionTag returns the newest release tag, or "" if it
// could not be determined.
func (u *UpdateChecker) CheckLatestVersionTag(ctx context.Context) string {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodHead, u.latestReleaseURL, nil)
	if err != nil {
		log.Printf("failed to check for newest version: %s", err.Error())
		return ""
	}
	resp, err := u.client.Do(req)
	if err != nil {
		log.Printf("failed to check for newest version: %s", err.Error())
		return ""
	}
	resp.Body.Close()
	return tagFromReleaseURL(resp.Request.URL.String())
}

func tagFromReleaseURL(url string) string {
	url = strings.TrimSuffix(url, "/")
	idx := strings.LastIndex(url, "/")
	if idx < 0 || idx >= len(url)-1 {
		return ""
	}
	tag := url[idx+1:]
	if tag == "latest" {
		// redirect was not followed
		return ""
	}
	return tag
}
