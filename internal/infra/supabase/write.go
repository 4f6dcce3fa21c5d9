package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// doSend executes an authenticated request carrying a JSON body. Used for
// inserts (POST), partial updates (PATCH) and RPC calls.
func (c *Client) doSend(ctx context.Context, method, url string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("supabase returned status %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

// doInsert POSTs one row into a table.
func (c *Client) doInsert(ctx context.Context, table string, row any) error {
	url := fmt.Sprintf("%s/rest/v1/%s", c.baseURL, table)
	_, err := c.doSend(ctx, http.MethodPost, url, row)
	return err
}

// doUpdate PATCHes rows matched by the query string of path.
func (c *Client) doUpdate(ctx context.Context, path string, fields any) error {
	url := fmt.Sprintf("%s/rest/v1/%s", c.baseURL, path)
	_, err := c.doSend(ctx, http.MethodPatch, url, fields)
	return err
}

// doRPC calls a Postgres function exposed through PostgREST.
func (c *Client) doRPC(ctx context.Context, fn string, args any) ([]byte, error) {
	url := fmt.Sprintf("%s/rest/v1/rpc/%s", c.baseURL, fn)
	return c.doSend(ctx, http.MethodPost, url, args)
}
