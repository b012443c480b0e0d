package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	pkgerrors "github.com/sudhir1041/whatsapp-api-shopifyOrderNotification/pkg/errors"
)

// TemplateType selects which configured template a send uses.
type TemplateType string

const (
	TemplateOrder         TemplateType = "order"
	TemplateFulfillment   TemplateType = "fulfillment"
	TemplateAbandonedCart TemplateType = "abandoned_cart"
	TemplateWelcome       TemplateType = "welcome"
)

const defaultTimeout = 15 * time.Second

// The Cloud API rejects sends against templates that declare a URL button
// unless the button parameter is supplied. Detected from the error body on
// the first attempt; the send is then retried once with the button component.
const buttonParamErrorMarker = "Button at index 0"

// Config is the per-shop slice of settings a single send needs.
type Config struct {
	BaseURL      string
	PhoneID      string
	AccessToken  string
	TemplateName string
	Language     string
}

// TemplateVars carries the positional body parameters by template type.
type TemplateVars struct {
	FirstName   string
	OrderID     string
	ProductName string
	Price       string
	TrackingID  string
	TrackingURL string
}

// SendResult is the provider acknowledgement for a dispatched message.
type SendResult struct {
	MessageID string
}

// Client talks to the WhatsApp Cloud API template-message endpoint.
type Client struct {
	http *resty.Client
}

// NewClient builds a Cloud API client with a bounded request timeout.
func NewClient() *Client {
	return &Client{
		http: resty.New().SetTimeout(defaultTimeout),
	}
}

type templatePayload struct {
	MessagingProduct string       `json:"messaging_product"`
	To               string       `json:"to"`
	Type             string       `json:"type"`
	Template         templateSpec `json:"template"`
}

type templateSpec struct {
	Name       string         `json:"name"`
	Language   templateLang   `json:"language"`
	Components []templateComp `json:"components"`
}

type templateLang struct {
	Code string `json:"code"`
}

type templateComp struct {
	Type       string          `json:"type"`
	SubType    string          `json:"sub_type,omitempty"`
	Index      string          `json:"index,omitempty"`
	Parameters []templateParam `json:"parameters"`
}

type templateParam struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type sendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

// SendTemplate dispatches one templated message. Configuration gaps surface as
// CONFIGURATION_ERROR; provider/network failures as DEPENDENCY_ERROR.
func (c *Client) SendTemplate(ctx context.Context, cfg Config, to string, ttype TemplateType, vars TemplateVars) (*SendResult, error) {
	if cfg.PhoneID == "" || cfg.AccessToken == "" {
		return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "whatsapp configuration incomplete")
	}
	if cfg.TemplateName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeConfiguration, fmt.Sprintf("template name not configured for %s", ttype))
	}

	result, err := c.attemptSend(ctx, cfg, to, ttype, vars, false)
	if err != nil && isButtonParamError(err) {
		return c.attemptSend(ctx, cfg, to, ttype, vars, true)
	}
	return result, err
}

func (c *Client) attemptSend(ctx context.Context, cfg Config, to string, ttype TemplateType, vars TemplateVars, includeButton bool) (*SendResult, error) {
	payload := buildPayload(cfg, to, ttype, vars, includeButton)

	var parsed sendResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(cfg.AccessToken).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		SetResult(&parsed).
		Post(fmt.Sprintf("%s%s/messages", cfg.BaseURL, cfg.PhoneID))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "whatsapp request failed")
	}
	if resp.IsError() {
		apiErr := fmt.Errorf("whatsapp api error: %s - %s", resp.Status(), resp.String())
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, apiErr, "whatsapp send rejected")
	}

	result := &SendResult{}
	if len(parsed.Messages) > 0 {
		result.MessageID = parsed.Messages[0].ID
	}
	return result, nil
}

func buildPayload(cfg Config, to string, ttype TemplateType, vars TemplateVars, includeButton bool) templatePayload {
	parameters := []templateParam{
		{Type: "text", Text: vars.FirstName},
		{Type: "text", Text: vars.OrderID},
	}
	switch ttype {
	case TemplateOrder, TemplateAbandonedCart:
		parameters = append(parameters,
			templateParam{Type: "text", Text: vars.ProductName},
			templateParam{Type: "text", Text: vars.Price},
		)
	case TemplateFulfillment:
		parameters = append(parameters,
			templateParam{Type: "text", Text: vars.TrackingID},
			templateParam{Type: "text", Text: vars.TrackingURL},
		)
	}

	components := []templateComp{
		{Type: "body", Parameters: parameters},
	}
	if includeButton {
		components = append(components, templateComp{
			Type:    "button",
			SubType: "url",
			Index:   "0",
			Parameters: []templateParam{
				{Type: "text", Text: vars.OrderID},
			},
		})
	}

	language := cfg.Language
	if language == "" {
		language = "en_US"
	}

	return templatePayload{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "template",
		Template: templateSpec{
			Name:       cfg.TemplateName,
			Language:   templateLang{Code: language},
			Components: components,
		},
	}
}

type textPayload struct {
	MessagingProduct string   `json:"messaging_product"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Text             textBody `json:"text"`
}

type textBody struct {
	Body string `json:"body"`
}

// SendText dispatches a free-form session message. No template is required,
// so only the phone number id and token are validated.
func (c *Client) SendText(ctx context.Context, cfg Config, to, body string) (*SendResult, error) {
	if cfg.PhoneID == "" || cfg.AccessToken == "" {
		return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "whatsapp configuration incomplete")
	}

	var parsed sendResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(cfg.AccessToken).
		SetHeader("Content-Type", "application/json").
		SetBody(textPayload{
			MessagingProduct: "whatsapp",
			To:               to,
			Type:             "text",
			Text:             textBody{Body: body},
		}).
		SetResult(&parsed).
		Post(fmt.Sprintf("%s%s/messages", cfg.BaseURL, cfg.PhoneID))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "whatsapp request failed")
	}
	if resp.IsError() {
		apiErr := fmt.Errorf("whatsapp api error: %s - %s", resp.Status(), resp.String())
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, apiErr, "whatsapp send rejected")
	}

	result := &SendResult{}
	if len(parsed.Messages) > 0 {
		result.MessageID = parsed.Messages[0].ID
	}
	return result, nil
}

// isButtonParamError walks the chain because the provider text lives on the
// wrapped cause, not on the typed error's own message.
func isButtonParamError(err error) bool {
	for e := err; e != nil; e = errors.Unwrap(e) {
		if strings.Contains(e.Error(), buttonParamErrorMarker) {
			return true
		}
	}
	return false
}
