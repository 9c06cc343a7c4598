package kakaopay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ikkim/budongsan-crm/pkg/logger"
)

// 카카오페이가 비활성 SID 에 돌려주는 에러 코드
const errCodeInactiveSID = -782

// Client represents a Kakao Pay subscription API client
type Client struct {
	config     Config
	httpClient *http.Client
}

// NewClient creates a new Kakao Pay client with the given configuration
func NewClient(config Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// Ready initiates the first subscription payment
func (c *Client) Ready(ctx context.Context, req ReadyRequest) (*ReadyResponse, error) {
	req.CID = c.config.CID
	if req.ApprovalURL == "" {
		req.ApprovalURL = c.config.ApprovalURL
	}
	if req.FailURL == "" {
		req.FailURL = c.config.FailURL
	}
	if req.CancelURL == "" {
		req.CancelURL = c.config.CancelURL
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	var resp ReadyResponse
	if err := c.doRequest(ctx, "ready", req, &resp); err != nil {
		return nil, fmt.Errorf("failed to make ready request: %w", err)
	}
	return &resp, nil
}

// Approve approves the first payment and returns the billing key (SID)
func (c *Client) Approve(ctx context.Context, req ApproveRequest) (*PaymentResponse, error) {
	req.CID = c.config.CID

	var resp PaymentResponse
	if err := c.doRequest(ctx, "approve", req, &resp); err != nil {
		return nil, fmt.Errorf("failed to make approve request: %w", err)
	}
	return &resp, nil
}

// Charge charges a recurring payment with a stored SID
func (c *Client) Charge(ctx context.Context, req SubscriptionRequest) (*PaymentResponse, error) {
	req.CID = c.config.CID
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	var resp PaymentResponse
	if err := c.doRequest(ctx, "subscription", req, &resp); err != nil {
		return nil, fmt.Errorf("failed to make subscription request: %w", err)
	}
	return &resp, nil
}

// Inactivate deactivates a SID so it can no longer be charged
func (c *Client) Inactivate(ctx context.Context, sid string) (*InactiveResponse, error) {
	var resp InactiveResponse
	if err := c.doRequest(ctx, "manage/subscription/inactive", InactiveRequest{CID: c.config.CID, SID: sid}, &resp); err != nil {
		return nil, fmt.Errorf("failed to make inactive request: %w", err)
	}
	return &resp, nil
}

// doRequest performs a POST to the Kakao Pay API and decodes the response into out
func (c *Client) doRequest(ctx context.Context, endpoint string, payload, out interface{}) error {
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	url := fmt.Sprintf("%s/%s", c.config.BaseURL, endpoint)
	logger.Debug("KakaoPay request", map[string]interface{}{
		"endpoint": endpoint,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(reqBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "SECRET_KEY "+c.config.SecretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp ErrorResponse
		if err := json.Unmarshal(body, &errResp); err != nil {
			return fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, string(body))
		}

		logger.Warn("KakaoPay API error", map[string]interface{}{
			"endpoint": endpoint,
			"status":   resp.StatusCode,
			"code":     errResp.Code,
			"message":  errResp.Message,
		})

		switch {
		case errResp.Code == errCodeInactiveSID:
			return fmt.Errorf("%w: %s", ErrInactiveSID, errResp.Message)
		case resp.StatusCode == http.StatusUnauthorized:
			return fmt.Errorf("%w: %s", ErrUnauthorized, errResp.Message)
		case resp.StatusCode == http.StatusBadRequest:
			return fmt.Errorf("%w: %s", ErrInvalidRequest, errResp.Error())
		default:
			return fmt.Errorf("%w: %s", ErrPaymentFailed, errResp.Error())
		}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to unmarshal %s response: %w", endpoint, err)
	}
	return nil
}
