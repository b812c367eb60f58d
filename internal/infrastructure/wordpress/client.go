package wordpress

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/catalogrecon/backend/internal/domain"
	"github.com/catalogrecon/backend/internal/infrastructure/upstream"
)

// Client reads the storefront catalog through WPGraphQL.
// It implements domain.SlugSource and domain.CatalogSource.
type Client struct {
	http   *upstream.Client
	logger *zap.Logger
}

// NewClient creates a WPGraphQL client; cfg.BaseURL is the full /graphql endpoint
func NewClient(cfg upstream.Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		http:   upstream.NewClient("wordpress", cfg, logger),
		logger: logger,
	}
}

// SetDebug toggles verbose request logging
func (c *Client) SetDebug(debug bool) {
	c.http.SetDebug(debug)
}

// ListSlugs returns one page of slug summaries
func (c *Client) ListSlugs(ctx context.Context, after string, first int) (*domain.SlugPage, error) {
	var data slugsData
	if err := c.query(ctx, slugsQuery, pageVariables(after, first), &data); err != nil {
		return nil, err
	}

	page := &domain.SlugPage{
		Slugs:       make([]domain.SlugSummary, 0, len(data.Products.Nodes)),
		HasNextPage: data.Products.PageInfo.HasNextPage,
		EndCursor:   data.Products.PageInfo.EndCursor,
	}
	for _, node := range data.Products.Nodes {
		summary, err := MapSlug(node)
		if err != nil {
			page.Skipped++
			c.logger.Debug("skipping slug node", zap.Error(err))
			continue
		}
		page.Slugs = append(page.Slugs, summary)
	}
	return page, nil
}

// ListProducts returns one page of unified products
func (c *Client) ListProducts(ctx context.Context, after string, first int) (*domain.ProductPage, error) {
	var data productsData
	if err := c.query(ctx, productsQuery, pageVariables(after, first), &data); err != nil {
		return nil, err
	}

	page := &domain.ProductPage{
		Products:    make([]domain.UnifiedProduct, 0, len(data.Products.Nodes)),
		HasNextPage: data.Products.PageInfo.HasNextPage,
		EndCursor:   data.Products.PageInfo.EndCursor,
	}
	for _, node := range data.Products.Nodes {
		product, err := MapProduct(node)
		if err != nil {
			page.Skipped++
			c.logger.Debug("skipping product node", zap.Error(err))
			continue
		}
		page.Products = append(page.Products, product)
	}
	return page, nil
}

// query executes a GraphQL operation and decodes its data block into out.
// Any entry in the errors array fails the whole page.
func (c *Client) query(ctx context.Context, query string, variables map[string]interface{}, out interface{}) error {
	payload, err := json.Marshal(graphqlRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("failed to encode query: %w", err)
	}

	body, err := c.http.Do(ctx, http.MethodPost, "", payload)
	if err != nil {
		return err
	}

	var resp graphqlResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", domain.ErrUpstreamFailure, err)
	}
	if len(resp.Errors) > 0 {
		messages := make([]string, len(resp.Errors))
		for i, e := range resp.Errors {
			messages[i] = e.Message
		}
		return fmt.Errorf("%w: graphql: %s", domain.ErrUpstreamFailure, strings.Join(messages, "; "))
	}
	if len(resp.Data) == 0 || string(resp.Data) == "null" {
		return fmt.Errorf("%w: graphql response has no data", domain.ErrUpstreamFailure)
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", domain.ErrUpstreamFailure, err)
	}
	return nil
}

func pageVariables(after string, first int) map[string]interface{} {
	vars := map[string]interface{}{"first": first}
	if after != "" {
		vars["after"] = after
	}
	return vars
}
