package exchange

import (
	"context"

	"arbscan/internal/model"
)

// Client defines the standard interface for all exchange connectors. A
// connector streams 24h ticker updates over a long-lived connection and
// serves symbol and order-book lookups on demand.
type Client interface {
	Name() string

	// StreamTickers connects to the exchange ticker feed and pushes quote
	// updates until the context is cancelled. It reconnects internally with
	// capped exponential backoff and only returns on cancellation.
	StreamTickers(ctx context.Context, quotes chan<- model.ExchangeQuote) error

	// Symbols lists the exchange's currently tradable native symbols.
	Symbols(ctx context.Context) ([]string, error)

	// OrderBook fetches a depth snapshot for one native symbol.
	OrderBook(ctx context.Context, nativeSymbol string, depth int) (*model.OrderBookSnapshot, error)
}
