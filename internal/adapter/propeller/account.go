package propeller

import (
	"context"
	"encoding/json"
	"net/http"

	"adpilot/internal/core/domain"
)

func (c *Client) GetBalance(ctx context.Context) (domain.Balance, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/adv/balance", nil, nil, &raw); err != nil {
		return domain.Balance{}, err
	}
	return parseBalance(raw)
}

func (c *Client) GetCountries(ctx context.Context) ([]domain.Country, error) {
	var items []namedItem
	if err := c.do(ctx, http.MethodGet, "/adv/countries", nil, nil, &items); err != nil {
		return nil, err
	}
	out := make([]domain.Country, len(items))
	for i, it := range items {
		out[i] = domain.Country{Code: it.Code, Name: it.Name}
	}
	return out, nil
}

func (c *Client) GetAdFormats(ctx context.Context) ([]domain.AdFormat, error) {
	var items []namedItem
	if err := c.do(ctx, http.MethodGet, "/adv/ad-formats", nil, nil, &items); err != nil {
		return nil, err
	}
	out := make([]domain.AdFormat, len(items))
	for i, it := range items {
		out[i] = domain.AdFormat{Code: it.Code, Name: it.Name}
	}
	return out, nil
}
