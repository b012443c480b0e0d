package sms

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	pkgerrors "github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/pkg/errors"
)

const (
	defaultBaseURL = "https://api.twilio.com/2010-04-01"
	defaultTimeout = 15 * time.Second
)

// Config is the per-shop SMS slice of settings one send needs.
type Config struct {
	AccountSID string
	AuthToken  string
	From       string
}

// SendResult is the provider acknowledgement for a dispatched message.
type SendResult struct {
	MessageID string
}

// Client talks to a Twilio-style messages endpoint.
type Client struct {
	http    *resty.Client
	baseURL string
}

func NewClient() *Client {
	return &Client{
		http:    resty.New().SetTimeout(defaultTimeout),
		baseURL: defaultBaseURL,
	}
}

type sendResponse struct {
	SID string `json:"sid"`
}

// Send delivers one SMS. Missing credentials surface as CONFIGURATION_ERROR;
// provider/network failures as DEPENDENCY_ERROR.
func (c *Client) Send(ctx context.Context, cfg Config, to, body string) (*SendResult, error) {
	if cfg.AccountSID == "" || cfg.AuthToken == "" {
		return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "sms settings not configured")
	}
	if to == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "recipient number required")
	}

	var parsed sendResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBasicAuth(cfg.AccountSID, cfg.AuthToken).
		SetFormData(map[string]string{
			"To":   to,
			"From": cfg.From,
			"Body": body,
		}).
		SetResult(&parsed).
		Post(fmt.Sprintf("%s/Accounts/%s/Messages.json", c.baseURL, cfg.AccountSID))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sms request failed")
	}
	if resp.IsError() {
		apiErr := fmt.Errorf("sms api error: %s - %s", resp.Status(), resp.String())
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, apiErr, "sms send rejected")
	}

	return &SendResult{MessageID: parsed.SID}, nil
}
