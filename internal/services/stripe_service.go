package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/rentwheels/vehicle-rental-backend/internal/config"
)

// stripeAPIBaseURL is the Stripe REST API endpoint
const stripeAPIBaseURL = "https://api.stripe.com/v1"

// EventCheckoutSessionCompleted is the webhook event emitted when a
// customer finishes a hosted checkout session.
const EventCheckoutSessionCompleted = "checkout.session.completed"

// StripeService handles payment gateway integration with Stripe Checkout
type StripeService struct {
	config  *config.StripeConfig
	logger  *logrus.Logger
	client  *http.Client
	baseURL string
	// now is injected for signature tolerance checks in tests
	now func() time.Time
}

// CheckoutSessionParams contains all parameters needed to create a hosted checkout session
type CheckoutSessionParams struct {
	BookingID     string
	VehicleName   string
	Description   string
	AmountSubunit int64 // total amount in the currency's smallest unit
}

// CheckoutSession represents the subset of Stripe's checkout session object we use
type CheckoutSession struct {
	ID            string `json:"id"`
	URL           string `json:"url"`
	PaymentIntent string `json:"payment_intent"`
	PaymentStatus string `json:"payment_status"`
	AmountTotal   int64  `json:"amount_total"`
	Metadata      struct {
		BookingID string `json:"booking_id"`
	} `json:"metadata"`
}

// WebhookEvent represents a Stripe webhook event envelope
type WebhookEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object CheckoutSession `json:"object"`
	} `json:"data"`
}

// stripeError mirrors Stripe's error response envelope
type stripeError struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// NewStripeService creates a new Stripe payment service
func NewStripeService(cfg *config.StripeConfig, logger *logrus.Logger) *StripeService {
	return &StripeService{
		config:  cfg,
		logger:  logger,
		baseURL: stripeAPIBaseURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		now: time.Now,
	}
}

// IsConfigured returns true if the payment gateway is properly configured
func (s *StripeService) IsConfigured() bool {
	return s.config.SecretKey != ""
}

// CreateCheckoutSession creates a hosted checkout session for a booking and
// returns the session with the redirect URL. The booking ID travels in the
// session metadata so the webhook can correlate the payment back to it.
func (s *StripeService) CreateCheckoutSession(params *CheckoutSessionParams) (*CheckoutSession, error) {
	if !s.IsConfigured() {
		return nil, fmt.Errorf("payment gateway not configured: missing secret key")
	}
	if params.AmountSubunit <= 0 {
		return nil, fmt.Errorf("invalid checkout amount: %d", params.AmountSubunit)
	}

	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", s.config.SuccessURL)
	form.Set("cancel_url", s.config.CancelURL)
	form.Set("metadata[booking_id]", params.BookingID)
	form.Set("line_items[0][quantity]", "1")
	form.Set("line_items[0][price_data][currency]", s.config.Currency)
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(params.AmountSubunit, 10))
	form.Set("line_items[0][price_data][product_data][name]", params.VehicleName)
	if params.Description != "" {
		form.Set("line_items[0][price_data][product_data][description]", params.Description)
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id": params.BookingID,
		"amount":     params.AmountSubunit,
		"currency":   s.config.Currency,
	}).Info("Creating Stripe checkout session")

	req, err := http.NewRequest(http.MethodPost, s.baseURL+"/checkout/sessions", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.config.SecretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.WithError(err).Error("Failed to call Stripe checkout endpoint")
		return nil, fmt.Errorf("failed to call payment gateway: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr stripeError
		if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
			return nil, fmt.Errorf("payment gateway returned status %d: %s", resp.StatusCode, apiErr.Error.Message)
		}
		return nil, fmt.Errorf("payment gateway returned status %d", resp.StatusCode)
	}

	var session CheckoutSession
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if session.URL == "" {
		return nil, fmt.Errorf("checkout session created without redirect URL")
	}

	s.logger.WithFields(logrus.Fields{
		"session_id": session.ID,
		"booking_id": params.BookingID,
	}).Info("Stripe checkout session created")

	return &session, nil
}

// VerifyWebhookSignature checks the Stripe-Signature header against the raw
// request body. Stripe signs "<timestamp>.<payload>" with HMAC-SHA256 using
// the endpoint secret and sends one or more v1 signatures in the header.
func (s *StripeService) VerifyWebhookSignature(payload []byte, sigHeader string) error {
	if s.config.WebhookSecret == "" {
		return fmt.Errorf("webhook secret not configured")
	}
	if sigHeader == "" {
		return fmt.Errorf("missing signature header")
	}

	var timestamp int64
	var signatures []string
	for _, part := range strings.Split(sigHeader, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			ts, err := strconv.ParseInt(kv[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid signature timestamp: %w", err)
			}
			timestamp = ts
		case "v1":
			signatures = append(signatures, kv[1])
		}
	}
	if timestamp == 0 || len(signatures) == 0 {
		return fmt.Errorf("malformed signature header")
	}

	age := s.now().Sub(time.Unix(timestamp, 0))
	if age > s.config.SignatureTolerance || age < -s.config.SignatureTolerance {
		return fmt.Errorf("signature timestamp outside tolerance")
	}

	mac := hmac.New(sha256.New, []byte(s.config.WebhookSecret))
	fmt.Fprintf(mac, "%d.%s", timestamp, payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	for _, sig := range signatures {
		if hmac.Equal([]byte(expected), []byte(sig)) {
			return nil
		}
	}
	return fmt.Errorf("no matching signature")
}

// ParseWebhookEvent verifies the signature and decodes the event payload
func (s *StripeService) ParseWebhookEvent(payload []byte, sigHeader string) (*WebhookEvent, error) {
	if err := s.VerifyWebhookSignature(payload, sigHeader); err != nil {
		return nil, err
	}

	var event WebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("invalid webhook payload: %w", err)
	}
	if event.Type == "" {
		return nil, fmt.Errorf("webhook missing event type")
	}

	s.logger.WithFields(logrus.Fields{
		"event_id":   event.ID,
		"event_type": event.Type,
	}).Info("Webhook event verified")

	return &event, nil
}

// SignPayload computes a Stripe-Signature header value for the given payload.
func (s *StripeService) SignPayload(payload []byte, timestamp time.Time) string {
	mac := hmac.New(sha256.New, []byte(s.config.WebhookSecret))
	fmt.Fprintf(mac, "%d.%s", timestamp.Unix(), payload)
	return fmt.Sprintf("t=%d,v1=%s", timestamp.Unix(), hex.EncodeToString(mac.Sum(nil)))
}
