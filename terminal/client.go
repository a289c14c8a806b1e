package terminal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is an HTTP client for a trade-terminal gateway.
type Client struct {
	BaseURL string // e.g. http://localhost:18812
	HTTP    *http.Client
}

// NewClient creates a gateway client with a bounded per-call timeout so a
// hung terminal cannot block a caller indefinitely.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Initialize logs the configured account into the terminal. The gateway
// reports refusals as a VenueError with the terminal's last-error detail.
func (c *Client) Initialize(ctx context.Context, login, password, server string) error {
	body := map[string]string{
		"login":    login,
		"password": password,
		"server":   server,
	}
	return c.post(ctx, "/api/v1/initialize", body, nil)
}

// Shutdown tears down the terminal session. Safe to call when no session is
// active; the gateway treats it as a no-op.
func (c *Client) Shutdown(ctx context.Context) error {
	return c.post(ctx, "/api/v1/shutdown", nil, nil)
}

// SymbolSelect enables a symbol for quoting. A VenueError means the terminal
// rejected the symbol.
func (c *Client) SymbolSelect(ctx context.Context, symbol string) error {
	body := map[string]any{"symbol": symbol, "enable": true}
	return c.post(ctx, "/api/v1/symbols/select", body, nil)
}

// SymbolTick fetches the latest tick for a selected symbol.
func (c *Client) SymbolTick(ctx context.Context, symbol string) (Tick, error) {
	var tick Tick
	path := "/api/v1/symbols/" + url.PathEscape(symbol) + "/tick"
	if err := c.get(ctx, path, &tick); err != nil {
		return Tick{}, err
	}
	return tick, nil
}

// OrderSend submits a trade request and returns the terminal's
// acknowledgement. A 204 from the gateway means the terminal produced no
// acknowledgement at all; that is surfaced as (nil, nil) and the caller
// decides what an absent ack means.
func (c *Client) OrderSend(ctx context.Context, req TradeRequest) (*TradeResult, error) {
	httpReq, err := c.newRequest(ctx, http.MethodPost, "/api/v1/orders", req)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient().Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("order send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var result TradeResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode order result: %w", err)
	}
	return &result, nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var rdr io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		rdr = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rdr)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	req, err := c.newRequest(ctx, http.MethodPost, path, body)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// checkStatus converts a non-2xx response into a VenueError when the gateway
// sent its structured {code, message} body, or a plain error otherwise.
func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	var ve VenueError
	if err := json.Unmarshal(raw, &ve); err == nil && ve.Message != "" {
		return &ve
	}
	return fmt.Errorf("gateway http %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
}
