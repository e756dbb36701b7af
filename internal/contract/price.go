package contract

import (
	"context"

	"trading-panel/internal/dto"
)

// PriceSource looks up one symbol. It never fails; an unknown or unreachable
// symbol yields Found=false.
type PriceSource interface {
	ResolvePrice(ctx context.Context, symbol string) dto.PriceQuote
}

// PriceResolver resolves many symbols at once with bounded parallelism.
type PriceResolver interface {
	Resolve(ctx context.Context, symbol string) dto.PriceQuote
	ResolveMany(ctx context.Context, symbols []string) map[string]dto.PriceQuote
}
