package httpdevice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang-ussd-gateway/internal/adapters/device/simulator"
	"golang-ussd-gateway/internal/domain"
	"golang-ussd-gateway/internal/ports"
)

// Client implements the platform ports against a device agent over HTTP.
type Client struct {
	baseURL    string
	apiLevel   int
	httpClient *http.Client
	// sessionClient carries USSD sessions, which outlive ordinary calls.
	sessionClient *http.Client
	log           *slog.Logger
}

// New creates a Client targeting the given base URL. apiLevel is the
// device's declared platform level; it is configuration, not probed.
func New(baseURL string, apiLevel int, log *slog.Logger) *Client {
	return &Client{
		baseURL:  baseURL,
		apiLevel: apiLevel,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		sessionClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
		log: log,
	}
}

// APILevel implements ports.Platform.
func (c *Client) APILevel() int {
	return c.apiLevel
}

// Granted implements ports.PermissionChecker. An unreachable device counts
// as not granted.
func (c *Client) Granted(p domain.Permission) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var grants map[domain.Permission]bool
	if err := c.do(ctx, c.httpClient, http.MethodGet, "/permissions", nil, &grants); err != nil {
		c.log.Warn("read permissions failed", "err", err)
		return false
	}
	return grants[p]
}

// RequestPermissions implements ports.PermissionRequester. The agent holds
// the request open until the user decides; done fires afterwards, whatever
// the result.
func (c *Client) RequestPermissions(ctx context.Context, _ []domain.Permission, done func()) error {
	ctx = context.WithoutCancel(ctx)
	go func() {
		defer done()
		if err := c.do(ctx, c.sessionClient, http.MethodPost, "/permissions/request", nil, nil); err != nil {
			c.log.Warn("permission prompt failed", "err", err)
		}
	}()
	return nil
}

// SendUSSDRequest implements ports.USSDSender. The session runs on its own
// goroutine and reports through cb; a transport failure is reported as
// ports.FailureServiceUnavailable.
func (c *Client) SendUSSDRequest(ctx context.Context, simSlot int, code string, cb ports.USSDCallback) error {
	body, err := json.Marshal(simulator.USSDRequest{Code: code, SimSlot: simSlot})
	if err != nil {
		return fmt.Errorf("marshal ussd request: %w", err)
	}

	// The session belongs to the device once issued; the caller only
	// decides how long it waits for the answer.
	ctx = context.WithoutCancel(ctx)

	go func() {
		var reply simulator.USSDReply
		if err := c.do(ctx, c.sessionClient, http.MethodPost, "/ussd", body, &reply); err != nil {
			c.log.Error("ussd session failed", "code", code, "err", err)
			cb.OnFailure(code, ports.FailureServiceUnavailable)
			return
		}

		switch reply.Status {
		case simulator.ReplyResponse:
			cb.OnResponse(code, reply.Response)
		case simulator.ReplyFailure:
			cb.OnFailure(code, reply.FailureCode)
		default:
			c.log.Error("unknown ussd reply status", "code", code, "status", reply.Status)
			cb.OnFailure(code, ports.FailureReturn)
		}
	}()
	return nil
}

// CanHandle implements ports.Dialer.
func (c *Client) CanHandle(intent ports.DialIntent) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	q := url.Values{"action": {intent.Action}, "uri": {intent.URI}}
	var resp struct {
		CanHandle bool `json:"canHandle"`
	}
	if err := c.do(ctx, c.httpClient, http.MethodGet, "/dial/handlers?"+q.Encode(), nil, &resp); err != nil {
		c.log.Warn("resolve dial intent failed", "err", err)
		return false
	}
	return resp.CanHandle
}

// Launch implements ports.Dialer.
func (c *Client) Launch(intent ports.DialIntent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	body, err := json.Marshal(simulator.DialRequest{Action: intent.Action, URI: intent.URI})
	if err != nil {
		return fmt.Errorf("marshal dial request: %w", err)
	}
	if err := c.do(ctx, c.httpClient, http.MethodPost, "/dial", body, nil); err != nil {
		return fmt.Errorf("launch dial intent: %w", err)
	}
	return nil
}

// ActiveSubscriptions implements ports.SubscriptionSource.
func (c *Client) ActiveSubscriptions(ctx context.Context) ([]ports.SubscriptionInfo, error) {
	var subs []simulator.Subscription
	if err := c.do(ctx, c.httpClient, http.MethodGet, "/subscriptions", nil, &subs); err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}

	out := make([]ports.SubscriptionInfo, 0, len(subs))
	for _, s := range subs {
		out = append(out, ports.SubscriptionInfo{SlotIndex: s.SlotIndex, CarrierName: s.CarrierName, Number: s.Number})
	}
	return out, nil
}

// do sends body (if any) and decodes a JSON response into out (if non-nil).
func (c *Client) do(ctx context.Context, hc *http.Client, method, path string, body []byte, out any) error {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		if e.Error != "" {
			return fmt.Errorf("device returned %d: %s", resp.StatusCode, e.Error)
		}
		return fmt.Errorf("device returned %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
