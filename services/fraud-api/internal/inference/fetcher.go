package inference

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/nimeshabuddhika/fraud-scoring-service/pkg/utils"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

const (
	defaultFetchTimeout = 30 * time.Second
	defaultBaseBackoff  = 200 * time.Millisecond
	defaultMaxBackoff   = 5 * time.Second
	maxArtifactBytes    = 64 << 20
)

// FetcherConfig controls how remote artifacts are retrieved.
type FetcherConfig struct {
	Timeout            time.Duration // per attempt
	Retries            int           // extra attempts after the first one for remote sources
	BaseBackoff        time.Duration
	MaxBackoff         time.Duration
	GCSCredentialsFile string // empty means application default credentials
}

// Fetcher reads artifact bytes from a local path, file://, gs:// or http(s):// URI.
type Fetcher struct {
	cfg        FetcherConfig
	logger     *zap.Logger
	httpClient *http.Client
	sleep      func(ctx context.Context, d time.Duration) error
}

func NewFetcher(logger *zap.Logger, cfg FetcherConfig) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultFetchTimeout
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = defaultBaseBackoff
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = defaultMaxBackoff
	}
	return &Fetcher{
		cfg:    cfg,
		logger: logger,
		httpClient: utils.NewHTTPClient(
			utils.WithClientTimeout(cfg.Timeout),
			utils.WithResponseHeaderTimeout(cfg.Timeout),
		),
		sleep: sleepContext,
	}
}

// permanentError stops the retry loop.
type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Fetch returns the artifact bytes at uri.
func (f *Fetcher) Fetch(ctx context.Context, uri string) ([]byte, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("parse artifact uri %q: %w", uri, err)
	}
	switch u.Scheme {
	case "":
		return readFile(uri)
	case "file":
		return readFile(u.Path)
	case "gs":
		object := strings.TrimPrefix(u.Path, "/")
		if u.Host == "" || object == "" {
			return nil, fmt.Errorf("artifact uri %q must be gs://bucket/object", uri)
		}
		return f.withRetry(ctx, uri, func(ctx context.Context) ([]byte, error) {
			return f.readGCS(ctx, u.Host, object)
		})
	case "http", "https":
		return f.withRetry(ctx, uri, func(ctx context.Context) ([]byte, error) {
			return f.readHTTP(ctx, uri)
		})
	default:
		return nil, fmt.Errorf("unsupported artifact scheme %q", u.Scheme)
	}
}

func (f *Fetcher) withRetry(ctx context.Context, uri string, read func(ctx context.Context) ([]byte, error)) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= f.cfg.Retries+1; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
		data, err := read(attemptCtx)
		cancel()
		if err == nil {
			return data, nil
		}
		lastErr = err

		var perm *permanentError
		if errors.As(err, &perm) || ctx.Err() != nil {
			break
		}
		if attempt > f.cfg.Retries {
			break
		}
		delay := utils.ExponentialBackoffWithJitter(attempt, f.cfg.BaseBackoff, f.cfg.MaxBackoff)
		f.logger.Warn("artifact_fetch_retry",
			zap.String("uri", uri),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", delay),
			zap.Error(err))
		if err := f.sleep(ctx, delay); err != nil {
			return nil, fmt.Errorf("fetch %s: %w", uri, err)
		}
	}
	var perm *permanentError
	if errors.As(lastErr, &perm) {
		lastErr = perm.err
	}
	return nil, fmt.Errorf("fetch %s: %w", uri, lastErr)
}

func (f *Fetcher) readHTTP(ctx context.Context, uri string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, &permanentError{err: err}
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("unexpected status %d", resp.StatusCode)
		// only server side and throttling failures are worth another attempt
		if resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, &permanentError{err: err}
		}
		return nil, err
	}
	return readLimited(resp.Body)
}

func (f *Fetcher) readGCS(ctx context.Context, bucket, object string) ([]byte, error) {
	var opts []option.ClientOption
	if f.cfg.GCSCredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(f.cfg.GCSCredentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, &permanentError{err: fmt.Errorf("create GCS storage client: %w", err)}
	}
	defer client.Close()

	reader, err := client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
			return nil, &permanentError{err: err}
		}
		return nil, err
	}
	defer reader.Close()
	return readLimited(reader)
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	return data, nil
}

func readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxArtifactBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxArtifactBytes {
		return nil, &permanentError{err: fmt.Errorf("artifact exceeds %d bytes", maxArtifactBytes)}
	}
	return data, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
