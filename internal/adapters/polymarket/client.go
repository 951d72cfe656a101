package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/alejandrodnm/polycopy/internal/domain"
	"github.com/alejandrodnm/polycopy/internal/metrics"
	"golang.org/x/time/rate"
)

const (
	defaultDataBase  = "https://data-api.polymarket.com"
	defaultCLOBBase  = "https://clob.polymarket.com"
	defaultGammaBase = "https://gamma-api.polymarket.com"

	// Rate limits al 60% de los límites reales documentados.
	// Data API /trades: 200/10s → 120/10s → 12/s
	dataRatePerSec = 12
	// Gamma /markets y /events: 300/10s → 180/10s → 18/s
	gammaRatePerSec = 18
	// CLOB general (/markets/{id}): 9000/10s → 5400/10s → 540/s
	clobRatePerSec = 540

	maxRetries    = 3
	baseRetryWait = 500 * time.Millisecond
)

// endpoint agrupa el limiter de una API con su nombre para métricas.
type endpoint struct {
	name    string
	base    string
	limiter *rate.Limiter
}

// Client es el HTTP client de Polymarket con rate limiting y retries.
// Implementa ports.TradeProvider, ports.CandidateProvider y ports.ResolutionSource.
type Client struct {
	http  *http.Client
	data  endpoint
	clob  endpoint
	gamma endpoint
}

// NewClient crea un Client con los base URLs dados.
// Los URLs vacíos usan los de producción.
func NewClient(dataBase, clobBase, gammaBase string) *Client {
	if dataBase == "" {
		dataBase = defaultDataBase
	}
	if clobBase == "" {
		clobBase = defaultCLOBBase
	}
	if gammaBase == "" {
		gammaBase = defaultGammaBase
	}
	return &Client{
		http:  &http.Client{Timeout: 15 * time.Second},
		data:  endpoint{name: "data", base: dataBase, limiter: rate.NewLimiter(dataRatePerSec, 5)},
		clob:  endpoint{name: "clob", base: clobBase, limiter: rate.NewLimiter(clobRatePerSec, 50)},
		gamma: endpoint{name: "gamma", base: gammaBase, limiter: rate.NewLimiter(gammaRatePerSec, 10)},
	}
}

// get hace un GET con rate limiting y retries. Un 404 devuelve domain.ErrNotFound.
func (c *Client) get(ctx context.Context, ep endpoint, url string, out any) error {
	return c.doWithRetry(ctx, ep, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return c.http.Do(req)
	}, out)
}

// doWithRetry ejecuta la función con backoff exponencial.
// Reintenta errores de red, 429 y 5xx; el resto de 4xx falla directamente.
func (c *Client) doWithRetry(ctx context.Context, ep endpoint, fn func() (*http.Response, error), out any) error {
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := ep.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		resp, err := fn()
		if err != nil {
			metrics.APIRequests.WithLabelValues(ep.name, "error").Inc()
			if attempt == maxRetries || ctx.Err() != nil {
				return fmt.Errorf("request failed after %d retries: %w", attempt, err)
			}
			c.sleep(ctx, attempt)
			continue
		}
		metrics.APIRequests.WithLabelValues(ep.name, statusClass(resp.StatusCode)).Inc()

		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			slog.Warn("rate limited by API", "api", ep.name, "attempt", attempt+1)
			c.sleep(ctx, attempt+1)
			continue
		}

		if resp.StatusCode >= 500 {
			resp.Body.Close()
			if attempt == maxRetries {
				return fmt.Errorf("server error %d after %d retries", resp.StatusCode, maxRetries)
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode == http.StatusNotFound {
			resp.Body.Close()
			return domain.ErrNotFound
		}

		if resp.StatusCode >= 400 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			resp.Body.Close()
			return fmt.Errorf("client error %d: %s", resp.StatusCode, string(body))
		}

		defer resp.Body.Close()
		dec := json.NewDecoder(resp.Body)
		dec.UseNumber()
		if err := dec.Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}
	return fmt.Errorf("exhausted %d retries", maxRetries)
}

// sleep espera con backoff exponencial, respetando el contexto.
func (c *Client) sleep(ctx context.Context, attempt int) {
	wait := time.Duration(math.Pow(2, float64(attempt))) * baseRetryWait
	select {
	case <-time.After(wait):
	case <-ctx.Done():
	}
}

func statusClass(code int) string {
	return strconv.Itoa(code/100) + "xx"
}
