package ingest

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/AngelCh415/marketing-intel/internal/utils"
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

func NewHTTPClient(timeout time.Duration) HTTPClient {
	return &http.Client{Timeout: timeout}
}

// fetch GETs url and returns at most limit bytes of the body.
func fetch(ctx context.Context, c HTTPClient, url string, limit int64) ([]byte, error) {
	if url == "" {
		return nil, errors.New("empty url")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &StatusError{Code: resp.StatusCode, Body: string(b)}
	}
	return readLimited(resp.Body, limit)
}

// fetchWithRetry retries transport errors and retryable statuses with
// exponential backoff plus jitter.
func fetchWithRetry(ctx context.Context, c HTTPClient, b utils.Backoff, url string, limit int64) ([]byte, error) {
	var body []byte
	err := b.Do(ctx, func(int) error {
		var err error
		body, err = fetch(ctx, c, url, limit)
		var se *StatusError
		if (errors.As(err, &se) && !se.Retryable()) || errors.Is(err, ErrTooLarge) {
			return utils.Permanent(err)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	b, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(b)) > limit {
		return nil, ErrTooLarge
	}
	return b, nil
}
