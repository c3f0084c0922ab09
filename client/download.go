package client

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/rehttp"

	"github.com/otherjamesbrown/meetprep/pkg/logging"
	"github.com/otherjamesbrown/meetprep/pkg/observability"
)

const (
	// DownloadAccept is the Accept header sent for transcript files.
	DownloadAccept = "text/vtt,text/plain,text/*,application/octet-stream,*/*"

	// maxDownloadSize caps the transcript body read into memory.
	maxDownloadSize = 32 << 20

	// htmlSniffLen is how much of the body is checked for an <html tag.
	htmlSniffLen = 500
)

var doctypeRegex = regexp.MustCompile(`(?i)^\s*<!doctype html`)

// Downloader fetches transcript files from the location the agent names.
type Downloader struct {
	httpClient *http.Client
	timeout    time.Duration
	metrics    *observability.Metrics
	tracer     *observability.Tracer
	logger     logging.Logger
}

// NewDownloader creates a Downloader with the given per-request timeout.
// Transient network errors and gateway statuses are retried twice.
func NewDownloader(timeout time.Duration, metrics *observability.Metrics, logger logging.Logger) *Downloader {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	transport := rehttp.NewTransport(
		http.DefaultTransport,
		rehttp.RetryAll(
			rehttp.RetryMaxRetries(2),
			rehttp.RetryHTTPMethods(http.MethodGet),
			rehttp.RetryAny(
				rehttp.RetryTemporaryErr(),
				rehttp.RetryStatuses(http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout),
			),
		),
		rehttp.ExpJitterDelay(500*time.Millisecond, 5*time.Second),
	)
	return &Downloader{
		httpClient: &http.Client{Transport: transport},
		timeout:    timeout,
		metrics:    metrics,
		tracer:     observability.NewTracer(),
		logger:     logger,
	}
}

// NewDownloaderWithClient uses hc as is, without retries.
func NewDownloaderWithClient(hc *http.Client, timeout time.Duration, metrics *observability.Metrics, logger logging.Logger) *Downloader {
	d := NewDownloader(timeout, metrics, logger)
	d.httpClient = hc
	return d
}

// Fetch downloads url and returns its body. It returns "" without error
// for non-2xx statuses, empty bodies and HTML pages (login portals). An
// error means the request itself failed.
func (d *Downloader) Fetch(ctx context.Context, url string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("building download request: %w", err)
	}
	req.Header.Set("Accept", DownloadAccept)

	ctx, span := d.tracer.StartDownloadSpan(ctx, req.URL.Host)
	defer span.End()
	helper := observability.NewSpanHelper(span)
	log := d.logger.WithContext(ctx).With(logging.F("host", req.URL.Host))

	resp, err := d.httpClient.Do(req.WithContext(ctx))
	if err != nil {
		helper.SetError(err, "download_failed", false)
		d.metrics.RecordDownload(false)
		return "", fmt.Errorf("downloading transcript: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Debug("Transcript download rejected", logging.F("status", resp.StatusCode))
		helper.SetResult("status_" + http.StatusText(resp.StatusCode))
		d.metrics.RecordDownload(false)
		return "", nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadSize))
	if err != nil {
		helper.SetError(err, "download_failed", false)
		d.metrics.RecordDownload(false)
		return "", fmt.Errorf("reading transcript body: %w", err)
	}
	text := string(body)

	if strings.TrimSpace(text) == "" || IsHTML(resp.Header.Get("Content-Type"), text) {
		log.Debug("Transcript download was empty or HTML")
		helper.SetResult("empty")
		d.metrics.RecordDownload(false)
		return "", nil
	}

	helper.SetAnswer(len(text), false)
	helper.SetSuccess()
	d.metrics.RecordDownload(true)
	return text, nil
}

// IsHTML reports whether a response looks like an HTML page rather than a
// transcript file.
func IsHTML(contentType, body string) bool {
	if mt, _, err := mime.ParseMediaType(contentType); err == nil && mt == "text/html" {
		return true
	}
	if doctypeRegex.MatchString(body) {
		return true
	}
	head := body
	if len(head) > htmlSniffLen {
		head = head[:htmlSniffLen]
	}
	return strings.Contains(strings.ToLower(head), "<html")
}
