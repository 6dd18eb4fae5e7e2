// Package smartconnect is a minimal typed client for the Angel One SmartAPI
// surface this system needs: session login (password + TOTP) and historical
// daily candle retrieval. Everything else the API offers is out of scope.
package smartconnect

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

const (
	defaultRootURL = "https://apiconnect.angelone.in"

	loginRoute  = "/rest/auth/angelbroking/user/v1/loginByPassword"
	candleRoute = "/rest/secure/angelbroking/historical/v1/getCandleData"

	// IntervalOneDay selects daily candles on the historical endpoint.
	IntervalOneDay = "ONE_DAY"
)

// Config configures the SmartAPI client.
type Config struct {
	APIKey  string
	RootURL string        // default: https://apiconnect.angelone.in
	Timeout time.Duration // default: 7s
}

// Client is the SmartAPI HTTP client. Login must succeed before any
// data call; the JWT from the session is sent on every request.
type Client struct {
	apiKey      string
	rootURL     string
	accessToken string
	httpClient  *http.Client
}

// Candle is one historical OHLCV bar as returned by getCandleData.
type Candle struct {
	TS     time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// apiResponse is the common SmartAPI envelope.
type apiResponse struct {
	Status    bool            `json:"status"`
	Message   string          `json:"message"`
	ErrorCode string          `json:"errorcode"`
	Data      json.RawMessage `json:"data"`
}

// New creates a SmartAPI client.
func New(cfg Config) *Client {
	root := cfg.RootURL
	if root == "" {
		root = defaultRootURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 7 * time.Second
	}
	return &Client{
		apiKey:  cfg.APIKey,
		rootURL: root,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Login opens a session with client code, password and a freshly generated
// TOTP code, storing the JWT for subsequent calls.
func (c *Client) Login(ctx context.Context, clientCode, password, totpCode string) error {
	params := map[string]string{
		"clientcode": clientCode,
		"password":   password,
		"totp":       totpCode,
	}

	var data struct {
		JWTToken string `json:"jwtToken"`
	}
	if err := c.post(ctx, loginRoute, params, &data); err != nil {
		return fmt.Errorf("smartconnect login: %w", err)
	}
	if data.JWTToken == "" {
		return fmt.Errorf("smartconnect login: no jwt token in response")
	}
	c.accessToken = data.JWTToken
	return nil
}

// GetDailyCandles fetches daily bars for a symbol token over [from, to].
// The endpoint returns rows of [timestamp, open, high, low, close, volume].
func (c *Client) GetDailyCandles(ctx context.Context, exchange, symbolToken string, from, to time.Time) ([]Candle, error) {
	params := map[string]string{
		"exchange":    exchange,
		"symboltoken": symbolToken,
		"interval":    IntervalOneDay,
		"fromdate":    from.Format("2006-01-02 09:15"),
		"todate":      to.Format("2006-01-02 15:30"),
	}

	var rows [][]json.RawMessage
	if err := c.post(ctx, candleRoute, params, &rows); err != nil {
		return nil, fmt.Errorf("smartconnect candle data: %w", err)
	}

	candles := make([]Candle, 0, len(rows))
	for _, row := range rows {
		if len(row) < 6 {
			continue
		}
		candle, err := parseCandleRow(row)
		if err != nil {
			return nil, fmt.Errorf("smartconnect candle data: %w", err)
		}
		candles = append(candles, candle)
	}
	return candles, nil
}

func parseCandleRow(row []json.RawMessage) (Candle, error) {
	var tsStr string
	if err := json.Unmarshal(row[0], &tsStr); err != nil {
		return Candle{}, fmt.Errorf("candle timestamp: %w", err)
	}
	ts, err := time.Parse("2006-01-02T15:04:05-07:00", tsStr)
	if err != nil {
		return Candle{}, fmt.Errorf("candle timestamp %q: %w", tsStr, err)
	}

	nums := make([]float64, 5)
	for i := 1; i < 6; i++ {
		v, err := parseNumber(row[i])
		if err != nil {
			return Candle{}, fmt.Errorf("candle field %d: %w", i, err)
		}
		nums[i-1] = v
	}

	return Candle{
		TS:     ts.UTC(),
		Open:   nums[0],
		High:   nums[1],
		Low:    nums[2],
		Close:  nums[3],
		Volume: int64(nums[4]),
	}, nil
}

// parseNumber accepts both JSON numbers and numeric strings; the API mixes
// the two between environments.
func parseNumber(raw json.RawMessage) (float64, error) {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("not a number: %s", string(raw))
	}
	return strconv.ParseFloat(s, 64)
}

func (c *Client) post(ctx context.Context, route string, params map[string]string, out any) error {
	body, err := json.Marshal(params)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rootURL+route, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-PrivateKey", c.apiKey)
	req.Header.Set("X-UserType", "USER")
	req.Header.Set("X-SourceID", "WEB")
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("http %d: %s", resp.StatusCode, truncate(raw, 200))
	}

	var envelope apiResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if !envelope.Status {
		return fmt.Errorf("api error %s: %s", envelope.ErrorCode, envelope.Message)
	}
	if out != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("decode data: %w", err)
		}
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
