// Package tbdex implements the HTTP protocol client the wallet uses to talk
// to PFIs: fetching offerings, opening exchanges, polling them, and
// submitting orders.
package tbdex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/amirasaad/kapital/config"
	"github.com/amirasaad/kapital/pkg/offering"
	"github.com/amirasaad/kapital/pkg/tbdex"
)

// EndpointResolver maps a provider URI (typically a DID) to the provider's
// HTTPS service endpoint.
type EndpointResolver func(providerURI string) (string, error)

// PassthroughResolver accepts provider URIs that already are HTTP(S)
// endpoints and rejects everything else. Deployments with DID-addressed
// providers plug in a resolving implementation.
func PassthroughResolver(providerURI string) (string, error) {
	if strings.HasPrefix(providerURI, "http://") || strings.HasPrefix(providerURI, "https://") {
		return strings.TrimRight(providerURI, "/"), nil
	}
	return "", fmt.Errorf("cannot resolve service endpoint for %q", providerURI)
}

// Client is the HTTP implementation of tbdex.Client.
type Client struct {
	httpClient *http.Client
	resolve    EndpointResolver
	logger     *slog.Logger
}

// NewClient builds a protocol client with the configured HTTP timeout.
func NewClient(cfg config.Tbdex, resolve EndpointResolver, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.HTTPTimeout},
		resolve:    resolve,
		logger:     logger.With("component", "tbdex_client"),
	}
}

type dataEnvelope struct {
	Data []json.RawMessage `json:"data"`
}

type messageEnvelope struct {
	Message any `json:"message"`
}

// GetOfferings implements tbdex.Client.
func (c *Client) GetOfferings(ctx context.Context, providerURI string) ([]offering.Offering, error) {
	base, err := c.resolve(providerURI)
	if err != nil {
		return nil, err
	}

	body, err := c.get(ctx, base+"/offerings")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch offerings from %s: %w", providerURI, err)
	}

	var envelope struct {
		Data []offering.Offering `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode offerings from %s: %w", providerURI, err)
	}
	return envelope.Data, nil
}

// CreateExchange implements tbdex.Client.
func (c *Client) CreateExchange(ctx context.Context, rfq *tbdex.Rfq) error {
	base, err := c.resolve(rfq.Metadata.To)
	if err != nil {
		return err
	}
	return c.send(ctx, http.MethodPost, base+"/exchanges", messageEnvelope{Message: rfq})
}

// GetExchange implements tbdex.Client.
func (c *Client) GetExchange(ctx context.Context, req tbdex.GetExchangeRequest) ([]tbdex.Message, error) {
	base, err := c.resolve(req.ProviderURI)
	if err != nil {
		return nil, err
	}

	body, err := c.get(ctx, base+"/exchanges/"+req.ExchangeID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch exchange %s: %w", req.ExchangeID, err)
	}

	var envelope dataEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode exchange %s: %w", req.ExchangeID, err)
	}

	messages := make([]tbdex.Message, 0, len(envelope.Data))
	for _, raw := range envelope.Data {
		message, err := decodeMessage(raw)
		if err != nil {
			c.logger.Warn("skipping undecodable exchange message",
				"exchange_id", req.ExchangeID, "error", err)
			continue
		}
		messages = append(messages, message)
	}
	return messages, nil
}

// SubmitOrder implements tbdex.Client.
func (c *Client) SubmitOrder(ctx context.Context, order *tbdex.Order) error {
	base, err := c.resolve(order.Metadata.To)
	if err != nil {
		return err
	}
	url := base + "/exchanges/" + order.Metadata.ExchangeID
	return c.send(ctx, http.MethodPut, url, messageEnvelope{Message: order})
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("provider returned status %d: %s", resp.StatusCode, string(body))
	}
	return io.ReadAll(resp.Body)
}

func (c *Client) send(ctx context.Context, method, url string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("provider returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

func decodeMessage(raw json.RawMessage) (tbdex.Message, error) {
	var probe struct {
		Metadata tbdex.Metadata `json:"metadata"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return tbdex.Message{}, err
	}

	message := tbdex.Message{Kind: probe.Metadata.Kind}
	switch probe.Metadata.Kind {
	case tbdex.KindRfq:
		var rfq tbdex.Rfq
		if err := json.Unmarshal(raw, &rfq); err != nil {
			return tbdex.Message{}, err
		}
		message.Rfq = &rfq
	case tbdex.KindQuote:
		var quote tbdex.Quote
		if err := json.Unmarshal(raw, &quote); err != nil {
			return tbdex.Message{}, err
		}
		message.Quote = &quote
	case tbdex.KindOrder:
		var order tbdex.Order
		if err := json.Unmarshal(raw, &order); err != nil {
			return tbdex.Message{}, err
		}
		message.Order = &order
	case tbdex.KindClose:
		var closeMsg tbdex.Close
		if err := json.Unmarshal(raw, &closeMsg); err != nil {
			return tbdex.Message{}, err
		}
		message.Close = &closeMsg
	default:
		return tbdex.Message{}, fmt.Errorf("unknown message kind %q", probe.Metadata.Kind)
	}
	return message, message.Validate()
}

var _ tbdex.Client = (*Client)(nil)
