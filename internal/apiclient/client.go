// Package apiclient is the client-safe boundary in front of the server
// dispatch endpoint. It never carries provider credentials and never lets
// an error escape as anything but a structured response.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/orderdesk/message-gateway/internal/core"
)

// Request is the wire format of POST /api/messaging.
type Request struct {
	Provider     core.ProviderType `json:"provider"`
	To           string            `json:"to"`
	TemplateName string            `json:"templateName,omitempty"`
	Content      any               `json:"content,omitempty"` // string or []string
	Options      *RequestOptions   `json:"options,omitempty"`
}

type RequestOptions struct {
	PreviewURL bool   `json:"previewUrl,omitempty"`
	Language   string `json:"language,omitempty"`
}

type dispatchResult struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId"`
	Error     string `json:"error"`
}

type Client struct {
	baseURL string
	client  *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// SendMessage flattens content into the endpoint's wire shape and posts it.
// Template content travels as templateName plus a parameter list; anything
// else as the plain body string.
func (c *Client) SendMessage(ctx context.Context, provider core.ProviderType, to string, content core.MessageContent, opts *core.MessageOptions) core.MessageResponse {
	req := Request{Provider: provider, To: to}

	if content.Type == core.TypeTemplate && content.Metadata != nil {
		req.TemplateName = content.Metadata.TemplateName
		req.Content = content.Metadata.Parameters
	} else {
		req.Content = content.Body
	}
	if opts != nil {
		ro := RequestOptions{PreviewURL: opts.PreviewURL}
		if opts.Template != nil {
			ro.Language = opts.Template.Language
		}
		if ro.PreviewURL || ro.Language != "" {
			req.Options = &ro
		}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return failresp(err, 500)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/messaging", bytes.NewReader(body))
	if err != nil {
		return failresp(err, 500)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return failresp(fmt.Errorf("dispatch: %w", err), 500)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	var result dispatchResult
	_ = json.Unmarshal(raw, &result)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := result.Error
		if msg == "" {
			msg = "failed to send message"
		}
		return core.MessageResponse{Success: false, Error: msg, StatusCode: resp.StatusCode}
	}

	return core.MessageResponse{
		Success:    true,
		MessageID:  result.MessageID,
		StatusCode: resp.StatusCode,
	}
}

func failresp(err error, code int) core.MessageResponse {
	return core.MessageResponse{Success: false, Error: err.Error(), StatusCode: code}
}
