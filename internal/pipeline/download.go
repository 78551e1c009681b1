package pipeline

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/wapuda/v2vn/internal/metrics"
)

// download streams url into dest. Completion is signaled by stream end; any
// transport error leaves a partial file for the caller's deferred release.
func (p *Pipeline) download(ctx context.Context, url, dest string) error {
	if p.opts.DownloadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.opts.DownloadTimeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	f, err := os.Create(dest)
	if err != nil {
		return err
	}
	n, err := io.Copy(f, resp.Body)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return err
	}
	metrics.DownloadBytesTotal.Add(float64(n))
	return nil
}
