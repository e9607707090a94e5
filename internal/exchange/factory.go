package exchange

import (
	"fmt"
	"log/slog"
)

// NewClient creates an exchange connector by name.
func NewClient(name string, logger *slog.Logger) (Client, error) {
	switch name {
	case "binance":
		return NewBinanceClient(logger), nil
	case "gate":
		return NewGateClient(logger), nil
	default:
		return nil, fmt.Errorf("unknown exchange: %s", name)
	}
}
