package atlas

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	queryPath    = "/api/v2/data/query.json"
	downloadPath = "/api/v2/well_known_file_download"
	tracePath    = "/api/v2/ephys_sweep_trace"

	maxAttempts    = 3
	initialBackoff = 500 * time.Millisecond
)

// ErrNotFound is returned when the upstream has no record for the request
var ErrNotFound = errors.New("not found upstream")

// Client talks to the upstream cell-types API. Outbound requests are rate
// limited, and transient failures are retried with exponential backoff.
type Client struct {
	baseURL  string
	pageSize int
	http     *http.Client
	limiter  *rate.Limiter
}

// New creates a Client for the given base URL. rps throttles outbound
// requests and pageSize bounds RMA paging; non-positive values fall back to
// defaults.
func New(baseURL string, rps float64, pageSize int) *Client {
	if rps <= 0 {
		rps = 4
	}
	if pageSize <= 0 {
		pageSize = 50
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		pageSize: pageSize,
		http:     &http.Client{Timeout: 60 * time.Second},
		limiter:  rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// ListSpecimens returns catalog rows for the given species, ordered by
// specimen ID. A positive limit caps the number of rows fetched.
func (c *Client) ListSpecimens(ctx context.Context, species string, limit int) ([]SpecimenDetail, error) {
	rows, err := queryPages[SpecimenDetail](ctx, c, func() *Query {
		q := NewQuery(ModelSpecimenDetail)
		if species != "" {
			q.Criteria(ILike("donor__species", species))
		}
		return q.Order("specimen__id")
	}, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list specimens: %w", err)
	}
	return rows, nil
}

// GetEphysFeatures returns the precomputed feature rows for the given
// specimens. Specimens without measured features are simply absent from the
// result.
func (c *Client) GetEphysFeatures(ctx context.Context, specimenIDs []int64) ([]EphysFeatureRecord, error) {
	if len(specimenIDs) == 0 {
		return nil, nil
	}
	rows, err := queryPages[EphysFeatureRecord](ctx, c, func() *Query {
		return NewQuery(ModelEphysFeature).Criteria(In("specimen_id", specimenIDs))
	}, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to get ephys features: %w", err)
	}
	return rows, nil
}

// ListSweeps returns the sweep index for one specimen ordered by sweep
// number
func (c *Client) ListSweeps(ctx context.Context, specimenID int64) ([]SweepRecord, error) {
	rows, err := queryPages[SweepRecord](ctx, c, func() *Query {
		return NewQuery(ModelEphysSweep).
			Criteria(Eq("specimen_id", specimenID)).
			Order("sweep_number")
	}, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list sweeps: %w", err)
	}
	return rows, nil
}

// GetReconstruction returns the specimen's reconstruction record with its
// attached files, or nil when the specimen has no reconstruction
func (c *Client) GetReconstruction(ctx context.Context, specimenID int64) (*ReconstructionRecord, error) {
	rows, err := queryPages[ReconstructionRecord](ctx, c, func() *Query {
		return NewQuery(ModelReconstruction).
			Criteria(Eq("specimen_id", specimenID)).
			Include("well_known_files(well_known_file_type)")
	}, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to get reconstruction: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// GetSweepTrace fetches the raw samples for one sweep. Values arrive in SI
// units (volts, amps).
func (c *Client) GetSweepTrace(ctx context.Context, specimenID int64, sweepNumber int) (*SweepTraceRecord, error) {
	u := fmt.Sprintf("%s%s/%d/%d.json", c.baseURL, tracePath, specimenID, sweepNumber)
	resp, err := c.do(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("failed to get sweep trace: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to get sweep trace: upstream returned %s", resp.Status)
	}
	var rec SweepTraceRecord
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		return nil, fmt.Errorf("failed to decode sweep trace: %w", err)
	}
	return &rec, nil
}

// DownloadFile streams a well-known file into w and returns the byte count
func (c *Client) DownloadFile(ctx context.Context, fileID int64, w io.Writer) (int64, error) {
	u := fmt.Sprintf("%s%s/%d", c.baseURL, downloadPath, fileID)
	resp, err := c.do(ctx, u)
	if err != nil {
		return 0, fmt.Errorf("failed to download file %d: %w", fileID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return 0, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("failed to download file %d: upstream returned %s", fileID, resp.Status)
	}
	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("failed to download file %d: %w", fileID, err)
	}
	return n, nil
}

// queryPages pages through the query built by build until the upstream
// total is exhausted or limit rows have been collected. build is invoked
// once per page so paging options never accumulate.
func queryPages[T any](ctx context.Context, c *Client, build func() *Query, limit int) ([]T, error) {
	var all []T
	for start := 0; ; {
		num := c.pageSize
		if limit > 0 && limit-len(all) < num {
			num = limit - len(all)
		}
		var page []T
		env, err := c.queryPage(ctx, build().Page(start, num), &page)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if limit > 0 && len(all) >= limit {
			return all[:limit], nil
		}
		// An empty page terminates paging even if total_rows claims more.
		if len(page) == 0 {
			return all, nil
		}
		start += len(page)
		if start >= env.TotalRows {
			return all, nil
		}
	}
}

// queryPage executes one RMA query and decodes the row payload into out
func (c *Client) queryPage(ctx context.Context, q *Query, out interface{}) (*envelope, error) {
	u := c.baseURL + queryPath + "?" + url.Values{"q": {q.String()}}.Encode()
	resp, err := c.do(ctx, u)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("upstream returned %s", resp.Status)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("failed to decode query envelope: %w", err)
	}
	if !env.Success {
		var msg string
		_ = json.Unmarshal(env.Msg, &msg)
		return nil, fmt.Errorf("upstream query failed: %s", msg)
	}
	if err := json.Unmarshal(env.Msg, out); err != nil {
		return nil, fmt.Errorf("failed to decode query rows: %w", err)
	}

	log.Debug().
		Int("num_rows", env.NumRows).
		Int("total_rows", env.TotalRows).
		Msg("Atlas query page")
	return &env, nil
}

// do executes a GET honoring the rate limit, retrying transport errors and
// 5xx responses with exponential backoff
func (c *Client) do(ctx context.Context, rawURL string) (*http.Response, error) {
	backoff := initialBackoff
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, err
		}
		resp, err := c.http.Do(req)
		if err == nil && resp.StatusCode < 500 {
			return resp, nil
		}
		if err != nil {
			lastErr = err
		} else {
			lastErr = fmt.Errorf("upstream returned %s", resp.Status)
			resp.Body.Close()
		}

		if attempt < maxAttempts {
			log.Warn().
				Err(lastErr).
				Int("attempt", attempt).
				Msg("Atlas request failed, retrying")
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			backoff *= 2
		}
	}
	return nil, lastErr
}
