package twilio

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"leadwire/internal/errors"

	"github.com/sirupsen/logrus"
)

// Client sends SMS through a provider and returns the provider message id.
type Client interface {
	SendText(ctx context.Context, to, body string) (string, error)
}

// TwilioClient talks to the Twilio Messages REST API. When credentials are
// absent the client stays constructible and every send fails with a gateway
// error, so the rest of the service keeps working in degraded mode.
type TwilioClient struct {
	accountSID string
	authToken  string
	fromNumber string
	baseURL    string
	client     *http.Client
	logger     *logrus.Logger
}

type messageResponse struct {
	SID          string `json:"sid"`
	Status       string `json:"status"`
	ErrorCode    *int   `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// NewClient reads credentials from TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN, and
// TWILIO_PHONE_NUMBER. Missing credentials are logged once at construction.
func NewClient(baseURL string, timeout time.Duration, logger *logrus.Logger) *TwilioClient {
	c := &TwilioClient{
		accountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
		authToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
		fromNumber: os.Getenv("TWILIO_PHONE_NUMBER"),
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		client:     &http.Client{Timeout: timeout},
		logger:     logger,
	}

	if !c.configured() {
		logger.Warn("Twilio credentials not configured, SMS sending disabled")
	}

	return c
}

func (c *TwilioClient) configured() bool {
	return c.accountSID != "" && c.authToken != "" && c.fromNumber != ""
}

func (c *TwilioClient) SendText(ctx context.Context, to, body string) (string, error) {
	if !c.configured() {
		return "", errors.New(errors.ErrCodeGatewaySend, "twilio credentials not configured")
	}

	form := url.Values{}
	form.Set("To", to)
	form.Set("From", c.fromNumber)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", c.baseURL, c.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeGatewaySend, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.accountSID, c.authToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", errors.WrapRetryable(err, errors.ErrCodeGatewaySend, "failed to send request")
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeGatewaySend, "failed to read response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr apiError
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Message != "" {
			return "", errors.NewGatewayError(resp.StatusCode,
				fmt.Errorf("twilio error %d: %s", apiErr.Code, apiErr.Message))
		}
		return "", errors.NewGatewayError(resp.StatusCode,
			fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var msg messageResponse
	if err := json.Unmarshal(respBody, &msg); err != nil {
		return "", errors.Wrap(err, errors.ErrCodeGatewaySend, "failed to parse response")
	}
	if msg.SID == "" {
		return "", errors.New(errors.ErrCodeGatewaySend, "response missing message sid")
	}

	c.logger.WithFields(logrus.Fields{
		"status": msg.Status,
	}).Debug("Twilio message accepted")

	return msg.SID, nil
}
