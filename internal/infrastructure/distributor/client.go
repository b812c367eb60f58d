package distributor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/catalogrecon/backend/internal/domain"
	"github.com/catalogrecon/backend/internal/infrastructure/upstream"
)

// Client reads the wholesale distributor's paged stock feed.
// It implements domain.DistributorFeed.
type Client struct {
	http   *upstream.Client
	logger *zap.Logger
}

// feedItem is one product row; the feed is inconsistent about whether
// quantities and prices are numbers or strings
type feedItem struct {
	SKU      string          `json:"sku"`
	Name     string          `json:"name"`
	Quantity json.RawMessage `json:"quantity"`
	Price    json.RawMessage `json:"price"`
}

type feedResponse struct {
	Data []feedItem `json:"data"`
	Meta struct {
		CurrentPage int `json:"current_page"`
		LastPage    int `json:"last_page"`
	} `json:"meta"`
}

// NewClient creates a distributor feed client; cfg.BaseURL is the API root
func NewClient(cfg upstream.Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		http:   upstream.NewClient("distributor", cfg, logger),
		logger: logger,
	}
}

// SetDebug toggles verbose request logging
func (c *Client) SetDebug(debug bool) {
	c.http.SetDebug(debug)
}

// ListStock returns one page (1-based) of the distributor stock feed.
// Rows whose quantity cannot be read keep a nil Quantity so callers can count them.
func (c *Client) ListStock(ctx context.Context, page, perPage int) (*domain.DistributorPage, error) {
	if page < 1 {
		page = 1
	}
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("per_page", strconv.Itoa(perPage))

	body, err := c.http.Do(ctx, http.MethodGet, "/products?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var resp feedResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", domain.ErrUpstreamFailure, err)
	}

	result := &domain.DistributorPage{
		Items:    make([]domain.DistributorItem, 0, len(resp.Data)),
		Page:     resp.Meta.CurrentPage,
		LastPage: resp.Meta.LastPage,
	}
	if result.Page == 0 {
		result.Page = page
	}

	for _, row := range resp.Data {
		item := domain.DistributorItem{
			SKU:      strings.TrimSpace(row.SKU),
			Name:     strings.TrimSpace(row.Name),
			Quantity: parseQuantity(row.Quantity),
			Price:    parsePrice(row.Price),
		}
		if item.Quantity == nil {
			c.logger.Debug("distributor row without readable quantity", zap.String("sku", item.SKU))
		}
		result.Items = append(result.Items, item)
	}
	return result, nil
}

// parseQuantity accepts 12, 12.0, "12" or " 12 "; null and garbage yield nil.
// Negative counts clamp to zero.
func parseQuantity(raw json.RawMessage) *int {
	d, ok := parseDecimal(raw)
	if !ok {
		return nil
	}
	v := int(d.IntPart())
	if v < 0 {
		v = 0
	}
	return &v
}

func parsePrice(raw json.RawMessage) string {
	d, ok := parseDecimal(raw)
	if !ok {
		return ""
	}
	return d.StringFixed(2)
}

func parseDecimal(raw json.RawMessage) (decimal.Decimal, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return decimal.Decimal{}, false
	}

	text := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return decimal.Decimal{}, false
		}
	}

	d, err := decimal.NewFromString(strings.TrimSpace(text))
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}
