// Package poller consumes checkout-completed events and clears the
// corresponding session's cart: once the order is placed, the cart is
// gone both locally and on the remote gateway.
package poller

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// CartClearer is implemented by the session manager.
type CartClearer interface {
	ClearCart(ctx context.Context, sessionID string) error
}

type Poller struct {
	clearer CartClearer
	reader  *kafka.Reader
	log     *zap.Logger
}

func NewPoller(clearer CartClearer, log *zap.Logger, brokers ...string) *Poller {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    "checkout-completed",
		GroupID:  "cart-session-consumer",
		MaxBytes: 10e6, // 10MB
	})
	return &Poller{clearer: clearer, reader: reader, log: log}
}

func (p *Poller) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		m, err := p.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() == nil {
				p.log.Warn("error reading message", zap.Error(err))
			}
			continue
		}

		if err := p.handleMessage(ctx, m.Value); err != nil {
			p.log.Warn("failed to process checkout event", zap.Error(err))
		}
	}
}

func (p *Poller) Close() {
	if err := p.reader.Close(); err != nil {
		p.log.Warn("error closing reader", zap.Error(err))
	}
}

func (p *Poller) handleMessage(ctx context.Context, value []byte) error {
	var payload struct {
		SessionID string `json:"session_id"`
	}
	if err := json.Unmarshal(value, &payload); err != nil {
		return fmt.Errorf("parse checkout event: %w", err)
	}
	if payload.SessionID == "" {
		return fmt.Errorf("checkout event missing session_id")
	}

	if err := p.clearer.ClearCart(ctx, payload.SessionID); err != nil {
		return fmt.Errorf("clear cart for session %s: %w", payload.SessionID, err)
	}

	p.log.Info("cleared cart after checkout", zap.String("session_id", payload.SessionID))
	return nil
}
