// Package events publishes domain events over Watermill.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"github.com/Marrmee/spark-gate/core"
	"github.com/Marrmee/spark-gate/ports"
)

const (
	// SignInTopic carries successful sign-in verifications.
	SignInTopic = "auth.signin"

	// EvictionTopic carries per-category cache sweep results.
	EvictionTopic = "cache.evicted"
)

// SignInEvent announces a verified wallet sign-in.
type SignInEvent struct {
	Address string `json:"address"`
	ChainID string `json:"chain_id"`
}

// EvictionEvent announces how many snapshots a sweep evicted for a category.
type EvictionEvent struct {
	Category string `json:"category"`
	Evicted  int    `json:"evicted"`
}

// WatermillPublisher implements ports.EventPublisher using Watermill.
type WatermillPublisher struct {
	publisher message.Publisher
}

var _ ports.EventPublisher = (*WatermillPublisher)(nil)

// NewWatermillPublisher creates a new Watermill-backed publisher.
func NewWatermillPublisher(publisher message.Publisher) *WatermillPublisher {
	return &WatermillPublisher{publisher: publisher}
}

// PublishSignIn publishes a sign-in event.
func (p *WatermillPublisher) PublishSignIn(ctx context.Context, address, chainID string) error {
	return p.publish(SignInTopic, SignInEvent{Address: address, ChainID: chainID})
}

// PublishEviction publishes a cache eviction event.
func (p *WatermillPublisher) PublishEviction(ctx context.Context, category core.ProposalCategory, evicted int) error {
	return p.publish(EvictionTopic, EvictionEvent{Category: string(category), Evicted: evicted})
}

func (p *WatermillPublisher) publish(topic string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(uuid.New().String(), payload)

	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}
