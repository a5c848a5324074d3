package infra

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// userAgent mimics a desktop browser. Yahoo's endpoints reject requests
// carrying the default Go client UA.
const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// DoGet issues a GET against url and returns the response body. The caller
// must close the returned reader. Non-2xx responses are drained, closed, and
// returned as errors.
func DoGet(ctx context.Context, client *http.Client, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", url, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("get %s: unexpected status %d", url, resp.StatusCode)
	}
	return resp.Body, nil
}
