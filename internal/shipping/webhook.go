package shipping

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/noah-isme/toko-storefront/internal/catalog"
	"github.com/noah-isme/toko-storefront/internal/resilience"
)

// ErrWebhookRejected is returned when the carrier answers with a non-2xx status.
var ErrWebhookRejected = errors.New("shipping: carrier rejected manifest")

// Doer sends an HTTP request. resilience.HTTPClient satisfies it.
type Doer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// ManifestItem is one shipped product in the carrier payload.
type ManifestItem struct {
	Name     string  `json:"name"`
	WeightKg float64 `json:"weightKg"`
}

// Manifest is the JSON body posted to the carrier endpoint.
type Manifest struct {
	ManifestID string         `json:"manifestId"`
	Items      []ManifestItem `json:"items"`
	CreatedAt  time.Time      `json:"createdAt"`
}

// WebhookNotifier posts a signed shipment manifest to a carrier endpoint.
type WebhookNotifier struct {
	URL    string
	Secret string
	HTTP   Doer
	Now    func() time.Time
}

// NewWebhookNotifier wires a notifier whose requests go through a retrying,
// circuit-broken client with an otel-instrumented transport.
func NewWebhookNotifier(endpoint, secret string, timeout time.Duration, breaker *resilience.Breaker) (*WebhookNotifier, error) {
	if err := validateURL(endpoint); err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if breaker == nil {
		breaker = resilience.NewBreaker(3, 0.5, 30*time.Second)
	}
	return &WebhookNotifier{
		URL:    endpoint,
		Secret: secret,
		HTTP: resilience.HTTPClient{
			Client:      &http.Client{Timeout: timeout, Transport: otelhttp.NewTransport(http.DefaultTransport)},
			Breaker:     breaker,
			BaseBackoff: 200 * time.Millisecond,
			MaxAttempts: 3,
			Jitter:      0.2,
			Timeout:     timeout,
			Target:      "shipping-carrier",
		},
	}, nil
}

// Notify posts the manifest and fails on transport errors or non-2xx responses.
func (n *WebhookNotifier) Notify(ctx context.Context, products []*catalog.Product) error {
	if n == nil || n.HTTP == nil {
		return errors.New("shipping: webhook notifier not configured")
	}
	ctx, span := otel.Tracer("shipping.WebhookNotifier").Start(ctx, "WebhookNotifier.Notify")
	defer span.End()

	manifest := Manifest{ManifestID: uuid.NewString(), CreatedAt: n.now().UTC()}
	for _, p := range products {
		if p == nil {
			continue
		}
		manifest.Items = append(manifest.Items, ManifestItem{Name: p.Name, WeightKg: p.WeightKilograms()})
	}
	span.SetAttributes(
		attribute.String("shipping.manifest_id", manifest.ManifestID),
		attribute.Int("shipping.items", len(manifest.Items)),
	)
	body, err := json.Marshal(manifest)
	if err != nil {
		span.RecordError(err)
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.URL, bytes.NewReader(body))
	if err != nil {
		span.RecordError(err)
		return err
	}
	ts := manifest.CreatedAt.Unix()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "toko-storefront-shipping/1.0")
	req.Header.Set("X-Manifest-ID", manifest.ManifestID)
	req.Header.Set("X-Timestamp", strconv.FormatInt(ts, 10))
	if n.Secret != "" {
		req.Header.Set("X-Signature", ComputeSignature(n.Secret, ts, manifest.ManifestID, body))
	}
	resp, err := n.HTTP.Do(ctx, req)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("shipping: post manifest: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	_, _ = io.Copy(io.Discard, resp.Body)
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", ErrWebhookRejected, resp.StatusCode)
	}
	return nil
}

func (n *WebhookNotifier) now() time.Time {
	if n.Now != nil {
		return n.Now()
	}
	return time.Now()
}

// ComputeSignature is HMAC-SHA256 over "<ts>.<manifestID>.<body>" keyed by secret.
func ComputeSignature(secret string, ts int64, manifestID string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write([]byte(strconv.FormatInt(ts, 10)))
	_, _ = mac.Write([]byte("."))
	_, _ = mac.Write([]byte(manifestID))
	_, _ = mac.Write([]byte("."))
	_, _ = mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func validateURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("shipping: invalid webhook url: %w", err)
	}
	if parsed.Scheme != "https" && parsed.Scheme != "http" {
		return errors.New("shipping: webhook url must be http or https")
	}
	if parsed.Host == "" {
		return errors.New("shipping: webhook url must include host")
	}
	if parsed.Scheme == "http" {
		host := parsed.Hostname()
		if host != "localhost" && host != "127.0.0.1" {
			return errors.New("shipping: http webhook only allowed for localhost")
		}
	}
	return nil
}
