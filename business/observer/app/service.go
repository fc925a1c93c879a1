// Package app contains application services and port definitions for the observer context.
package app

import (
	"context"

	"github.com/fd1az/chainwatch/business/observer/domain"
)

// ObserverService coordinates access to the chain data provider and its
// event feed for the rest of the application.
type ObserverService struct {
	provider ChainDataProvider
	events   ChainEvents
}

// NewObserverService creates a new ObserverService.
func NewObserverService(provider ChainDataProvider, events ChainEvents) *ObserverService {
	return &ObserverService{
		provider: provider,
		events:   events,
	}
}

// Provider returns the chain data provider capability.
func (s *ObserverService) Provider() ChainDataProvider {
	return s.provider
}

// SubscribeNewHeads registers a new-head callback. The returned func
// releases the subscription.
func (s *ObserverService) SubscribeNewHeads(fn func(domain.HeadEvent)) func() {
	if s.events == nil {
		return func() {}
	}
	return s.events.SubscribeNewHeads(fn)
}

// HeadNumber returns the current chain head number.
func (s *ObserverService) HeadNumber(ctx context.Context) (uint64, error) {
	return s.provider.BlockNumber(ctx)
}
