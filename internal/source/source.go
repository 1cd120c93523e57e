// Package source pulls still frames from an HTTP camera.
package source

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"net/http"
	"net/url"
	"time"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/cenkalti/backoff/v4"
	"github.com/icholy/digest"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"philipredstone/netcam/internal/apperr"
	"philipredstone/netcam/internal/frame"
	"philipredstone/netcam/internal/logger"
)

// maxBody bounds the size of one still image.
const maxBody = 64 << 20

// Options configures an HTTP source.
type Options struct {
	URL string
	// User and Password enable HTTP Digest authentication. Both must be set.
	User     string
	Password string
	// Timeout bounds a single request, connection and body included.
	Timeout time.Duration
	// Retries is the number of extra attempts after a failed request.
	Retries int
	// Backoff is the first wait between attempts; it doubles on each retry.
	Backoff time.Duration
}

// HTTPSource fetches one image per request.
type HTTPSource struct {
	url     string
	client  *http.Client
	retries int
	backoff time.Duration
	log     *logrus.Entry
}

// New validates the options and builds the HTTP client.
func New(opts Options) (*HTTPSource, error) {
	u, err := url.Parse(opts.URL)
	if err != nil {
		return nil, apperr.New(apperr.Config, err, "camera url")
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, apperr.Newf(apperr.Config, "camera url %q must be an absolute http(s) url", opts.URL)
	}
	if opts.Timeout <= 0 {
		return nil, apperr.Newf(apperr.Config, "timeout must be positive, got %s", opts.Timeout)
	}
	if opts.Retries < 0 {
		return nil, apperr.Newf(apperr.Config, "retries must not be negative, got %d", opts.Retries)
	}
	if opts.Backoff <= 0 {
		opts.Backoff = 200 * time.Millisecond
	}

	var transport http.RoundTripper = http.DefaultTransport
	if opts.User != "" && opts.Password != "" {
		transport = &digest.Transport{
			Username: opts.User,
			Password: opts.Password,
		}
	}
	return &HTTPSource{
		url: u.String(),
		client: &http.Client{
			Transport: transport,
			Timeout:   opts.Timeout,
		},
		retries: opts.Retries,
		backoff: opts.Backoff,
		log:     logger.Log.WithField("scope", "source"),
	}, nil
}

// Fetch downloads and decodes one frame. Transport failures and bad statuses
// are Network errors, undecodable payloads are Decode errors.
func (s *HTTPSource) Fetch(ctx context.Context) (*frame.Frame, error) {
	body, err := s.download(ctx)
	if err != nil {
		return nil, err
	}
	return Decode(body)
}

func (s *HTTPSource) download(ctx context.Context) ([]byte, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.backoff
	b.MaxInterval = 10 * s.backoff
	b.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(s.retries)), ctx)

	var body []byte
	op := func() error {
		var err error
		body, err = s.get(ctx)
		return err
	}
	notify := func(err error, wait time.Duration) {
		s.log.Warnf("fetch failed, retrying in %s: %v", wait, err)
	}
	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		return nil, apperr.New(apperr.Network, err, "fetch "+s.url)
	}
	return body, nil
}

func (s *HTTPSource) get(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, backoff.Permanent(ctx.Err())
		}
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		err := fmt.Errorf("bad status: %s", resp.Status)
		if !retryable(resp.StatusCode) {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody+1))
	if err != nil {
		return nil, errors.Wrap(err, "read body")
	}
	if len(body) > maxBody {
		return nil, backoff.Permanent(errors.Errorf("image larger than %d bytes", maxBody))
	}
	s.log.Debugf("fetched %d bytes (%s)", len(body), resp.Header.Get("Content-Type"))
	return body, nil
}

// retryable reports whether a status may succeed on a later attempt.
func retryable(code int) bool {
	switch {
	case code == http.StatusRequestTimeout, code == http.StatusTooManyRequests:
		return true
	case code >= 500:
		return true
	default:
		return false
	}
}

// Decode converts an encoded still image into a Frame.
func Decode(data []byte) (*frame.Frame, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, apperr.New(apperr.Decode, err, fmt.Sprintf("decode %d bytes", len(data)))
	}
	f := frame.FromImage(img)
	if f.Empty() {
		return nil, apperr.Newf(apperr.Decode, "decoded %s image is empty", format)
	}
	return f, nil
}
