package sri

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/bryanwahyu/licitai/internal/domain/registry"
)

// DefaultBaseURL is the public SRI taxpayer lookup endpoint. {ruc} is
// substituted with the queried number.
const DefaultBaseURL = "https://srienlinea.sri.gob.ec/sri-catastro-sujeto-servicio-internet/rest/ConsolidadoContribuyente/obtenerPorNumerosRuc?&ruc={ruc}"

const defaultTimeout = 20 * time.Second

// Client looks up taxpayers in the SRI public registry over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

// New builds a Client. Empty baseURL falls back to DefaultBaseURL, zero
// timeout to 20s.
func New(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// Lookup fetches the taxpayer record for a RUC. Network failures and
// timeouts come back wrapping registry.ErrUnavailable so callers can
// retry; an empty result maps to registry.ErrNotFound.
func (c *Client) Lookup(ctx context.Context, ruc string) (*registry.Taxpayer, error) {
	url := strings.ReplaceAll(c.baseURL, "{ruc}", ruc)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build SRI request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if isTransient(err) {
			return nil, fmt.Errorf("SRI request: %v: %w", err, registry.ErrUnavailable)
		}
		return nil, fmt.Errorf("SRI request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusNotFound {
			return nil, registry.ErrNotFound
		}
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return nil, fmt.Errorf("SRI status %d: %w", resp.StatusCode, registry.ErrUnavailable)
		}
		return nil, fmt.Errorf("SRI status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read SRI response: %v: %w", err, registry.ErrUnavailable)
	}

	var records []registry.Taxpayer
	if err := json.Unmarshal(body, &records); err != nil {
		// Some deployments answer a single object instead of an array.
		var one registry.Taxpayer
		if err2 := json.Unmarshal(body, &one); err2 != nil {
			return nil, fmt.Errorf("decode SRI response: %w", err)
		}
		records = append(records, one)
	}
	if len(records) == 0 {
		return nil, registry.ErrNotFound
	}
	tp := records[0]
	if tp.RUC == "" {
		tp.RUC = ruc
	}
	return &tp, nil
}

func isTransient(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}
