// Package pinger issues the outbound marketplace ping and records its outcome.
package pinger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dmarcana/marketplace-analytics-backend/internal/generator"
	"github.com/dmarcana/marketplace-analytics-backend/internal/records"
	"github.com/dmarcana/marketplace-analytics-backend/pkg/config"
	"github.com/dmarcana/marketplace-analytics-backend/pkg/db/models"
	"github.com/dmarcana/marketplace-analytics-backend/pkg/logger"
	"gorm.io/datatypes"
)

const responseBodyReadLimit int64 = 1 << 20

// Pinger runs one generate-post-persist cycle per invocation. It never
// returns an error: outbound failures become persisted failure records, and
// persistence failures are logged and dropped.
type Pinger struct {
	httpClient *http.Client
	generator  *generator.Generator
	repo       records.Repository
	legacy     records.GenericRepository
	logg       *logger.Logger
	targetURL  string
	userAgent  string
}

// Option configures optional pinger behavior.
type Option func(*Pinger)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(p *Pinger) {
		if client != nil {
			p.httpClient = client
		}
	}
}

// WithLegacyMirror also writes each outcome to the legacy responses table,
// which the old dashboard still reads.
func WithLegacyMirror(repo records.GenericRepository) Option {
	return func(p *Pinger) {
		p.legacy = repo
	}
}

// New builds a Pinger from the ping configuration.
func New(cfg config.PingConfig, gen *generator.Generator, repo records.Repository, logg *logger.Logger, opts ...Option) *Pinger {
	p := &Pinger{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		generator:  gen,
		repo:       repo,
		logg:       logg,
		targetURL:  cfg.TargetURL,
		userAgent:  cfg.UserAgent,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// Ping generates a marketplace observation, POSTs it to the target endpoint,
// and persists the outcome. Elapsed time is measured for failures too, so a
// timeout still yields a record with its real duration.
func (p *Pinger) Ping(ctx context.Context) {
	observation := p.generator.Generate()

	payload, err := json.Marshal(observation)
	if err != nil {
		p.logg.Error(ctx, "marshal marketplace observation", err)
		return
	}

	start := time.Now()
	record := &models.MarketplaceResponse{
		URL:             p.targetURL,
		Method:          http.MethodPost,
		MarketplaceData: datatypes.JSON(payload),
	}

	resp, err := p.doRequest(ctx, payload)
	// Timestamp marks when the outcome concluded, not when it was dispatched.
	record.ResponseTime = time.Since(start).Milliseconds()
	record.Timestamp = time.Now().UTC()

	switch {
	case err != nil:
		// No response at all. Status 0 is the reserved "no response" sentinel.
		msg := err.Error()
		record.StatusCode = 0
		record.ResponseData = nil
		record.Error = &msg
		p.logg.Error(ctx, "marketplace ping failed", err)
	case resp.StatusCode >= http.StatusBadRequest:
		msg := fmt.Sprintf("request failed with status %d", resp.StatusCode)
		record.StatusCode = resp.StatusCode
		record.ResponseData = asJSON(readBody(resp))
		record.Error = &msg
		p.logg.Warn(p.logg.WithField(ctx, "status_code", resp.StatusCode), "marketplace ping rejected")
	default:
		record.StatusCode = resp.StatusCode
		record.ResponseData = successBody(readBody(resp))
		p.logg.Info(p.logg.WithField(ctx, "status_code", resp.StatusCode), "marketplace ping succeeded")
	}

	if err := p.repo.Create(ctx, record); err != nil {
		p.logg.Error(ctx, "persist marketplace ping outcome", err)
	}
	p.mirrorLegacy(ctx, record)
}

// mirrorLegacy duplicates the outcome into the legacy responses table. The
// legacy row stores the observation as the request payload instead of a
// dedicated column.
func (p *Pinger) mirrorLegacy(ctx context.Context, record *models.MarketplaceResponse) {
	if p.legacy == nil {
		return
	}
	mirror := &models.Response{
		URL:            record.URL,
		Method:         record.Method,
		RequestPayload: record.MarketplaceData,
		StatusCode:     record.StatusCode,
		ResponseData:   record.ResponseData,
		ResponseTime:   record.ResponseTime,
		Timestamp:      record.Timestamp,
		Error:          record.Error,
	}
	if err := p.legacy.Create(ctx, mirror); err != nil {
		p.logg.Error(ctx, "persist legacy ping outcome", err)
	}
}

func (p *Pinger) doRequest(ctx context.Context, payload []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.targetURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", p.userAgent)
	return p.httpClient.Do(req)
}

func readBody(resp *http.Response) []byte {
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
	if err != nil {
		return nil
	}
	return body
}

// successBody wraps a successful remote body as {"success":true,"raw":<body>}.
func successBody(body []byte) datatypes.JSON {
	wrapped, err := json.Marshal(map[string]json.RawMessage{
		"success": json.RawMessage("true"),
		"raw":     json.RawMessage(asJSON(body)),
	})
	if err != nil {
		return nil
	}
	return datatypes.JSON(wrapped)
}

// asJSON keeps valid JSON bodies as-is and quotes anything else so the value
// still fits a jsonb column.
func asJSON(body []byte) datatypes.JSON {
	if len(body) == 0 {
		return datatypes.JSON("null")
	}
	if json.Valid(body) {
		return datatypes.JSON(body)
	}
	quoted, err := json.Marshal(string(body))
	if err != nil {
		return datatypes.JSON("null")
	}
	return datatypes.JSON(quoted)
}
