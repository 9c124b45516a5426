package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/agentstation/epubalt/pkg/errors"
	"github.com/agentstation/epubalt/pkg/logging"
)

// PostJSON encodes body as JSON, posts it to url and decodes the response into target.
func (c *Client) PostJSON(ctx context.Context, url string, body, target any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return errors.WrapParse("json", "request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return errors.WrapResource("create", "request", "POST "+url, err)
	}

	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	return c.DecodeResponse(ctx, resp, target)
}

// DecodeResponse decodes a JSON response into the target structure.
func (c *Client) DecodeResponse(ctx context.Context, resp *http.Response, target any) error {
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("Failed to close response body")
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.WrapIO("read", "response body", err)
	}

	if resp.StatusCode != http.StatusOK {
		return &errors.APIError{
			Provider:   c.provider,
			Endpoint:   resp.Request.URL.String(),
			StatusCode: resp.StatusCode,
			Message:    string(body),
		}
	}

	if err := json.Unmarshal(body, target); err != nil {
		return errors.WrapParse("json", "response", err)
	}

	return nil
}
