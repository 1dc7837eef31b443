package sharedutil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/hashicorp/go-retryablehttp"
)

func FilterSlice[T any](ss []T, test func(T) bool) []T {
	if ss == nil {
		return nil
	}
	result := make([]T, 0)
	for _, s := range ss {
		if test(s) {
			result = append(result, s)
		}
	}
	return result
}

// DownloadFileWithContext downloads a file from the specified URL and saves it to destPath.
// Transient failures are retried by client. The file is written to a temporary
// name and renamed into place, so destPath only ever holds a complete download.
// Returns an error if an error other than cancellation occurs, and returns true IFF the file was completely downloaded.
func DownloadFileWithContext(ctx context.Context, client *retryablehttp.Client, url string, destPath string) (bool, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, fmt.Errorf("creating request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return false, nil
		}
		return false, fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("bad status: %s", resp.Status)
	}

	tmpPath := destPath + ".part"
	out, err := os.Create(tmpPath)
	if err != nil {
		return false, fmt.Errorf("creating file: %w", err)
	}

	_, err = io.Copy(out, resp.Body)
	out.Close()

	select {
	case <-ctx.Done():
		// Cancelled, delete partial file
		os.Remove(tmpPath)
		return false, nil
	default:
		if err != nil {
			os.Remove(tmpPath)
			return false, fmt.Errorf("error copying data: %w", err)
		}
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return false, fmt.Errorf("moving file into place: %w", err)
	}
	return true, nil
}
