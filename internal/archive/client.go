// client.go - REST client for the science data center file API
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/mms-viewer/backend/internal/metrics"
	"github.com/mms-viewer/backend/internal/models"
)

const userAgent = "mms-viewer/1.0"

// maxErrorBody caps how much of a failed response body is kept in errors.
const maxErrorBody = 512

// Options configures a Client. Zero values select the public endpoints,
// level l2, no rate limit and no request timeout.
type Options struct {
	FileInfoURL       string
	DownloadURL       string
	DataLevel         string
	RequestsPerMinute int
	Timeout           time.Duration
	HTTPClient        *http.Client
}

// Client queries the archive for science files and downloads them.
type Client struct {
	fileInfoURL string
	downloadURL string
	level       string
	client      *http.Client
	limiter     *rate.Limiter
	logger      *zap.Logger
}

// SearchRequest selects the files to list.
type SearchRequest struct {
	Range      models.TimeRange
	Instrument models.Instrument
	Probe      int             // defaults to 1
	DataRate   models.DataRate // defaults to fast
}

// NewClient creates an archive client.
func NewClient(opts Options, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.FileInfoURL == "" {
		opts.FileInfoURL = DefaultFileInfoURL
	}
	if opts.DownloadURL == "" {
		opts.DownloadURL = DefaultDownloadURL
	}
	if opts.DataLevel == "" {
		opts.DataLevel = models.DefaultDataLevel
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RequestsPerMinute)), 1)
	}

	return &Client{
		fileInfoURL: opts.FileInfoURL,
		downloadURL: opts.DownloadURL,
		level:       opts.DataLevel,
		client:      httpClient,
		limiter:     limiter,
		logger:      logger,
	}
}

// SearchFiles lists the files matching req in the order the archive returns them.
// The instrument/data rate pairing and the probe are validated before any request is made.
func (c *Client) SearchFiles(ctx context.Context, req SearchRequest) ([]models.FileRecord, error) {
	if req.Probe == 0 {
		req.Probe = 1
	}
	if req.DataRate == "" {
		req.DataRate = models.DataRateFast
	}
	if err := models.ValidateCombination(req.Instrument, req.DataRate); err != nil {
		return nil, err
	}
	if err := models.ValidateProbe(req.Probe); err != nil {
		return nil, err
	}

	url := SearchURL(c.fileInfoURL, req.Range, req.Probe, req.Instrument, req.DataRate, c.level)
	body, err := c.get(ctx, "search", url)
	if err != nil {
		metrics.ArchiveRequests.WithLabelValues("search", "error").Inc()
		return nil, err
	}
	c.logger.Debug("archive listing received", zap.String("url", url), zap.Int("bytes", len(body)))

	if err := validateListing(body); err != nil {
		metrics.ArchiveRequests.WithLabelValues("search", "invalid").Inc()
		return nil, err
	}

	var listing struct {
		Files []models.FileRecord `json:"files"`
	}
	if err := json.Unmarshal(body, &listing); err != nil {
		metrics.ArchiveRequests.WithLabelValues("search", "invalid").Inc()
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	metrics.ArchiveRequests.WithLabelValues("search", "ok").Inc()

	c.logger.Debug("archive files found",
		zap.Int("count", len(listing.Files)),
		zap.Strings("files", models.FileNames(listing.Files)))
	return listing.Files, nil
}

// Sink stores downloaded files by name. Satisfied by storage.Store.
type Sink interface {
	Save(name string, r io.Reader) (*models.CachedFile, error)
}

// DownloadFile fetches a science file by name and saves it into dest,
// replacing any existing copy. The body is buffered in full before writing.
func (c *Client) DownloadFile(ctx context.Context, fileName string, dest Sink) (*models.CachedFile, error) {
	url := DownloadURL(c.downloadURL, fileName)

	c.logger.Info("requesting file from archive", zap.String("file", fileName))
	body, err := c.get(ctx, "download", url)
	if err != nil {
		metrics.ArchiveRequests.WithLabelValues("download", "error").Inc()
		return nil, err
	}

	c.logger.Info("writing response to cache", zap.String("file", fileName), zap.Int("bytes", len(body)))
	saved, err := dest.Save(fileName, bytes.NewReader(body))
	if err != nil {
		metrics.ArchiveRequests.WithLabelValues("download", "error").Inc()
		return nil, fmt.Errorf("saving %s: %w", fileName, err)
	}

	metrics.ArchiveRequests.WithLabelValues("download", "ok").Inc()
	metrics.DownloadBytes.Add(float64(len(body)))
	return saved, nil
}

// get performs one rate-limited GET and returns the full body of a 2xx response.
func (c *Client) get(ctx context.Context, op, url string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &TransportError{Op: op, URL: url, Err: fmt.Errorf("rate limit wait failed: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &TransportError{Op: op, URL: url, Err: err}
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, URL: url, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: op, URL: url, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := body
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		return nil, &TransportError{
			Op:         op,
			URL:        url,
			StatusCode: resp.StatusCode,
			Body:       string(bytes.TrimSpace(snippet)),
		}
	}

	return body, nil
}
