package cms

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/PizzaHomicide/lectern/internal/log"
	"github.com/machinebox/graphql"
)

// Client is a minimal client for the headless CMS GraphQL API
type Client struct {
	client    *graphql.Client
	authToken string
}

func NewClient(endpoint, authToken string) (*Client, error) {
	if endpoint == "" {
		log.Error("CMS client endpoint is empty")
		return nil, fmt.Errorf("CMS client endpoint is empty")
	}

	client := graphql.NewClient(endpoint, graphql.WithHTTPClient(&http.Client{Timeout: 30 * time.Second}))
	client.Log = func(s string) { log.Trace("graphql", "message", s) }

	return &Client{
		client:    client,
		authToken: authToken,
	}, nil
}

func (c *Client) Query(ctx context.Context, query string, variables map[string]interface{}, result interface{}) error {
	req := graphql.NewRequest(query)

	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	for key, value := range variables {
		req.Var(key, value)
	}

	if err := c.client.Run(ctx, req, result); err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			return NetworkError{Err: err}
		}
		return err
	}
	return nil
}

// NetworkError wraps failures to reach the CMS at all, as opposed to errors reported by it
type NetworkError struct {
	Err error
}

func (e NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e NetworkError) Unwrap() error {
	return e.Err
}
