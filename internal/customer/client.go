package customer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/vitrin/vitrin/internal/graphql"
)

// Customer is the authenticated customer profile.
type Customer struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Email     string `json:"emailAddress,omitempty"`
}

// Order is one past order in the account view.
type Order struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	ProcessedAt time.Time `json:"processedAt"`
	Status      string    `json:"financialStatus,omitempty"`
	Total       struct {
		Amount       string `json:"amount"`
		CurrencyCode string `json:"currencyCode"`
	} `json:"totalPrice"`
}

const queryMe = `
query Me {
  customer {
    id
    firstName
    lastName
    emailAddress
  }
}
`

const queryOrders = `
query Orders($first: Int!) {
  customer {
    orders(first: $first, sortKey: PROCESSED_AT, reverse: true) {
      nodes {
        id
        name
        processedAt
        financialStatus
        totalPrice {
          amount
          currencyCode
        }
      }
    }
  }
}
`

// Client queries the Customer Account API with a customer access token.
type Client struct {
	endpoint string
	logger   *zap.Logger
}

// NewClient builds a Customer Account API client for endpoint.
func NewClient(endpoint string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{endpoint: endpoint, logger: logger}
}

func (c *Client) gql(accessToken string) *graphql.Client {
	return graphql.NewClient(c.endpoint, map[string]string{
		"Authorization": "Bearer " + accessToken,
	}, c.logger)
}

// Me fetches the authenticated customer's profile.
func (c *Client) Me(ctx context.Context, accessToken string) (*Customer, error) {
	var data struct {
		Customer *Customer `json:"customer"`
	}
	err := c.gql(accessToken).Execute(ctx, graphql.Request{Query: queryMe}, &data)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch customer: %w", err)
	}
	if data.Customer == nil {
		return nil, ErrReauthenticate
	}
	return data.Customer, nil
}

// Orders fetches the customer's most recent orders.
func (c *Client) Orders(ctx context.Context, accessToken string, first int) ([]Order, error) {
	var data struct {
		Customer *struct {
			Orders struct {
				Nodes []Order `json:"nodes"`
			} `json:"orders"`
		} `json:"customer"`
	}
	err := c.gql(accessToken).Execute(ctx, graphql.Request{
		Query:     queryOrders,
		Variables: map[string]any{"first": first},
	}, &data)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch orders: %w", err)
	}
	if data.Customer == nil {
		return nil, ErrReauthenticate
	}
	return data.Customer.Orders.Nodes, nil
}

// PushConfig registers the storefront's OAuth callback and logout URIs
// with the platform. Backs the `vitrin customer-account push` command.
func PushConfig(ctx context.Context, storeDomain, adminToken, callbackURL, logoutURL string) error {
	payload := map[string]any{
		"callback_url": callbackURL,
		"logout_url":   logoutURL,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal customer-account config: %w", err)
	}

	endpoint := fmt.Sprintf("https://%s/admin/customer_account/config", storeDomain)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+adminToken)

	resp, err := (&http.Client{Timeout: 15 * time.Second}).Do(req)
	if err != nil {
		return fmt.Errorf("customer-account push failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("customer-account push rejected: HTTP %d", resp.StatusCode)
	}
	return nil
}
