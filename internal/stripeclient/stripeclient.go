package stripeclient

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"

	"coursemart/entity"
	"coursemart/lib/sl"
)

type Database interface {
	SetPaymentStatus(ctx context.Context, transactionId, status string) error
}

// StripeClient creates payment intents for checkout and confirms
// payment records from webhook events.
type StripeClient struct {
	sc            *client.API
	webhookSecret string
	currency      string
	db            Database
	log           *slog.Logger
}

func New(apiKey, webhookSecret, currency string, logger *slog.Logger) *StripeClient {
	sc := &client.API{}
	sc.Init(apiKey, nil)
	return &StripeClient{
		sc:            sc,
		webhookSecret: webhookSecret,
		currency:      currency,
		log:           logger.With(sl.Module("stripe")),
	}
}

func (s *StripeClient) SetDatabase(db Database) {
	s.db = db
}

// CreatePaymentIntent opens an intent for the given amount in cents
// and returns its id and the client secret the frontend confirms with.
func (s *StripeClient) CreatePaymentIntent(_ context.Context, amount int64) (id, clientSecret string, err error) {
	if amount < 1 {
		return "", "", fmt.Errorf("invalid amount: %d", amount)
	}
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(s.currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	pi, err := s.sc.PaymentIntents.New(params)
	if err != nil {
		return "", "", fmt.Errorf("create payment intent: %w", err)
	}
	s.log.With(
		slog.String("id", pi.ID),
		slog.Int64("amount", amount),
	).Debug("payment intent created")
	return pi.ID, pi.ClientSecret, nil
}

// VerifySignature checks the Stripe-Signature header against the
// webhook secret, rejecting events older than the tolerance.
func (s *StripeClient) VerifySignature(payload []byte, header string, tolerance time.Duration) bool {
	parts := strings.Split(header, ",")
	var ts, sig string
	for _, p := range parts {
		if strings.HasPrefix(p, "t=") {
			ts = strings.TrimPrefix(p, "t=")
		}
		if strings.HasPrefix(p, "v1=") {
			sig = strings.TrimPrefix(p, "v1=")
		}
	}
	if ts == "" || sig == "" {
		s.log.Warn("missing timestamp or signature in header")
		return false
	}

	tsInt, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		s.log.With(sl.Err(err)).Warn("failed to parse timestamp")
		return false
	}

	eventTime := time.Unix(tsInt, 0)
	timeSince := time.Since(eventTime)
	if timeSince > tolerance {
		s.log.With(
			slog.Time("timestamp", eventTime),
			slog.Duration("age", timeSince),
			slog.Duration("tolerance", tolerance),
		).Warn("webhook timestamp too old")
		return false
	}

	mac := hmac.New(sha256.New, []byte(s.webhookSecret))
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(sig))
}

// HandleEvent reacts to webhook events. Only intent settlement is of
// interest: it flips the matching payment record to confirmed.
func (s *StripeClient) HandleEvent(ctx context.Context, evt *stripe.Event) {
	log := s.log.With(
		slog.String("event_id", evt.ID),
		slog.Any("event_type", evt.Type),
	)
	switch evt.Type {
	case stripe.EventTypePaymentIntentSucceeded:
		intentId := evt.GetObjectValue("id")
		log = log.With(slog.String("intent_id", intentId))
		if s.db == nil {
			log.Warn("database not connected, event dropped")
			return
		}
		err := s.db.SetPaymentStatus(ctx, intentId, entity.PaymentConfirmed)
		if errors.Is(err, entity.ErrNotFound) {
			log.Warn("no payment record for intent")
			return
		}
		if err != nil {
			log.Error("confirm payment", sl.Err(err))
			return
		}
		log.Info("payment confirmed")
	default:
		log.Debug("event ignored")
	}
}
