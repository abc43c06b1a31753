package dictionary

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/text/encoding/htmlindex"
)

// Fetcher retrieves a remote word list.
type Fetcher interface {
	Fetch(ctx context.Context, location string) ([]string, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, location string) ([]string, error)

func (f FetcherFunc) Fetch(ctx context.Context, location string) ([]string, error) {
	return f(ctx, location)
}

const (
	fetchConnectTimeout = 10 * time.Second
	fetchTimeout        = 60 * time.Second
)

// HTTPFetcher reads word lists over plain HTTP GET.
type HTTPFetcher struct {
	Client *http.Client
}

// NewHTTPFetcher returns a fetcher with a 10s connect and 60s overall timeout.
func NewHTTPFetcher() *HTTPFetcher {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{Timeout: fetchConnectTimeout}).DialContext
	transport.ResponseHeaderTimeout = fetchTimeout
	return &HTTPFetcher{
		Client: &http.Client{Transport: transport, Timeout: fetchTimeout},
	}
}

// Fetch GETs location and returns its non-blank lines, decoded with the
// charset from Content-Type (UTF-8 when absent).
func (f *HTTPFetcher) Fetch(ctx context.Context, location string) ([]string, error) {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", location, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", location, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %s", location, resp.Status)
	}

	body, err := decodeBody(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", location, err)
	}
	words, err := ReadWords(body)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", location, err)
	}
	return words, nil
}

func decodeBody(r io.Reader, contentType string) (io.Reader, error) {
	if contentType == "" {
		return r, nil
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return r, nil
	}
	charset := strings.TrimSpace(params["charset"])
	if charset == "" || strings.EqualFold(charset, "utf-8") || strings.EqualFold(charset, "utf8") {
		return r, nil
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q: %w", charset, err)
	}
	return enc.NewDecoder().Reader(r), nil
}
