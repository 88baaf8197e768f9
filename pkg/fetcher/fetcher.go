// Package fetcher implements the remote catalog client: listing the source's
// HTML autoindex pages and downloading named files with bounded retries.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/repeater/v2"
)

// product files the source publishes; everything else on the index page
// (checksums, readme, parent-dir links) is ignored
var allowedSuffixes = []string{".hdf", ".tar"}

// Client lists and fetches files from a remote autoindex-style source.
type Client struct {
	httpClient *http.Client
	userAgent  string
	retries    int
	retryDelay time.Duration
}

// Config holds client settings.
type Config struct {
	Timeout    time.Duration
	UserAgent  string
	Retries    int
	RetryDelay time.Duration
}

// New creates a catalog client.
func New(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Retries == 0 {
		cfg.Retries = 4
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = 2 * time.Second
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		userAgent:  cfg.UserAgent,
		retries:    cfg.Retries,
		retryDelay: cfg.RetryDelay,
	}
}

// List returns product file names published at baseURL, newest first.
// The page is an HTML autoindex; entries are collected from anchor hrefs and
// filtered to known product suffixes. Name ordering is reverse-lexicographic
// which matches reverse-chronological for timestamped names.
func (c *Client) List(ctx context.Context, baseURL string) ([]string, error) {
	var body []byte
	retrier := repeater.NewBackoff(c.retries, c.retryDelay, repeater.WithMaxDelay(30*time.Second))
	err := retrier.Do(ctx, func() error {
		data, err := c.get(ctx, baseURL)
		if err != nil {
			lgr.Printf("[WARN] listing failed for %s: %v", baseURL, err)
			return err
		}
		body = data
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", baseURL, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("parse listing %s: %w", baseURL, err)
	}

	var entries []string
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		name := href[strings.LastIndex(href, "/")+1:]
		for _, suffix := range allowedSuffixes {
			if strings.HasSuffix(strings.ToLower(name), suffix) {
				entries = append(entries, name)
				return
			}
		}
	})

	sort.Sort(sort.Reverse(sort.StringSlice(entries)))
	return entries, nil
}

// Fetch downloads the named file from baseURL into dest. The download streams
// to disk; on failure any partial file is removed so a half-written product
// can never be mistaken for a complete one.
func (c *Client) Fetch(ctx context.Context, baseURL, name, dest string) error {
	fileURL, err := url.JoinPath(baseURL, name)
	if err != nil {
		return fmt.Errorf("build url for %s: %w", name, err)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o750); err != nil {
		return fmt.Errorf("create destination dir: %w", err)
	}

	lgr.Printf("[INFO] downloading %s", fileURL)
	retrier := repeater.NewBackoff(c.retries, c.retryDelay, repeater.WithMaxDelay(30*time.Second))
	err = retrier.Do(ctx, func() error {
		if err := c.download(ctx, fileURL, dest); err != nil {
			lgr.Printf("[WARN] download failed for %s: %v", fileURL, err)
			return err
		}
		return nil
	})
	if err != nil {
		if removeErr := os.Remove(dest); removeErr != nil && !os.IsNotExist(removeErr) {
			lgr.Printf("[WARN] failed to remove partial file %s: %v", dest, removeErr)
		}
		return fmt.Errorf("fetch %s: %w", fileURL, err)
	}
	return nil
}

func (c *Client) download(ctx context.Context, fileURL, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	fh, err := os.Create(dest) //nolint:gosec // destination is built from configured directories
	if err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}
	if _, err := io.Copy(fh, resp.Body); err != nil {
		_ = fh.Close()
		return fmt.Errorf("write %s: %w", dest, err)
	}
	if err := fh.Close(); err != nil {
		return fmt.Errorf("close %s: %w", dest, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, pageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
