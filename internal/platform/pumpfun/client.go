// Package pumpfun is the HTTP client for the bonding-curve venue. It
// implements the execution, price, and liquidity collaborators against the
// venue's REST API.
package pumpfun

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/alanyoungcy/curvebot/internal/domain"
)

const defaultTimeout = 15 * time.Second

// Client talks to the venue REST API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient creates a venue client for the given API host.
func NewClient(baseURL, apiKey string, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: defaultTimeout},
		logger:  logger.With(slog.String("component", "pumpfun_client")),
	}
}

type buyRequest struct {
	Mint                   string  `json:"mint"`
	BondingCurve           string  `json:"bonding_curve"`
	AssociatedBondingCurve string  `json:"associated_bonding_curve"`
	Amount                 float64 `json:"amount"`
}

type sellRequest struct {
	Mint                   string `json:"mint"`
	BondingCurve           string `json:"bonding_curve"`
	AssociatedBondingCurve string `json:"associated_bonding_curve"`
}

type fillResponse struct {
	TxID  string  `json:"tx_id"`
	Price float64 `json:"price"`
}

type balanceResponse struct {
	Balance float64 `json:"balance"`
}

type curveStateResponse struct {
	Price     float64 `json:"price"`
	Liquidity float64 `json:"liquidity"`
}

// Buy submits a market buy against the token's bonding curve.
func (c *Client) Buy(ctx context.Context, opp domain.Opportunity, amount float64) (domain.Fill, error) {
	req := buyRequest{
		Mint:                   opp.TokenID,
		BondingCurve:           opp.Route.BondingCurve,
		AssociatedBondingCurve: opp.Route.AssociatedBondingCurve,
		Amount:                 amount,
	}
	var resp fillResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/trade/buy", req, &resp); err != nil {
		return domain.Fill{}, fmt.Errorf("pumpfun: buy %s: %w", opp.TokenID, err)
	}
	return domain.Fill{TxID: resp.TxID, Price: resp.Price}, nil
}

// Sell exits the full position for the token.
func (c *Client) Sell(ctx context.Context, tokenID string, route domain.Route) (domain.Fill, error) {
	req := sellRequest{
		Mint:                   tokenID,
		BondingCurve:           route.BondingCurve,
		AssociatedBondingCurve: route.AssociatedBondingCurve,
	}
	var resp fillResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/trade/sell", req, &resp); err != nil {
		return domain.Fill{}, fmt.Errorf("pumpfun: sell %s: %w", tokenID, err)
	}
	return domain.Fill{TxID: resp.TxID, Price: resp.Price}, nil
}

// Balance returns the wallet balance in base currency.
func (c *Client) Balance(ctx context.Context) (float64, error) {
	var resp balanceResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/wallet/balance", nil, &resp); err != nil {
		return 0, fmt.Errorf("pumpfun: balance: %w", err)
	}
	return resp.Balance, nil
}

// Price quotes the current bonding-curve price.
func (c *Client) Price(ctx context.Context, route domain.Route) (float64, error) {
	state, err := c.curveState(ctx, route)
	if err != nil {
		return 0, fmt.Errorf("pumpfun: price: %w", err)
	}
	if state.Price <= 0 {
		return 0, fmt.Errorf("pumpfun: price: %w", domain.ErrPriceUnavailable)
	}
	return state.Price, nil
}

// Liquidity estimates the liquidity on the bonding curve in base currency.
func (c *Client) Liquidity(ctx context.Context, route domain.Route) (float64, error) {
	state, err := c.curveState(ctx, route)
	if err != nil {
		return 0, fmt.Errorf("pumpfun: liquidity: %w", err)
	}
	return state.Liquidity, nil
}

func (c *Client) curveState(ctx context.Context, route domain.Route) (curveStateResponse, error) {
	var resp curveStateResponse
	path := "/api/curve/" + route.BondingCurve
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return curveStateResponse{}, err
	}
	return resp, nil
}

// doJSON performs an HTTP request with a JSON body and decodes the JSON
// response into out. Non-2xx statuses are returned as errors carrying the
// status code and a truncated response body.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return domain.ErrRateLimited
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Compile-time interface checks.
var (
	_ domain.Trader          = (*Client)(nil)
	_ domain.PriceSource     = (*Client)(nil)
	_ domain.LiquiditySource = (*Client)(nil)
)
