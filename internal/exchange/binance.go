package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"

	"arbscan/internal/model"
)

const (
	binanceWSURL   = "wss://stream.binance.com:9443/ws/!ticker@arr"
	binanceRESTURL = "https://api.binance.com"
)

// BinanceClient implements the Client interface for Binance.
type BinanceClient struct {
	logger  *slog.Logger
	http    *http.Client
	wsURL   string
	restURL string
}

// NewBinanceClient creates a new BinanceClient.
func NewBinanceClient(logger *slog.Logger) *BinanceClient {
	return &BinanceClient{
		logger:  logger,
		http:    &http.Client{Timeout: 10 * time.Second},
		wsURL:   binanceWSURL,
		restURL: binanceRESTURL,
	}
}

func (b *BinanceClient) Name() string {
	return "binance"
}

// StreamTickers connects to the Binance all-market ticker stream and pushes
// quote updates until the context is cancelled.
func (b *BinanceClient) StreamTickers(ctx context.Context, quotes chan<- model.ExchangeQuote) error {
	backoff := time.Second
	for {
		select {
		case <-ctx.Done():
			b.logger.Info("BinanceClient: context cancelled, shutting down")
			return nil
		default:
			b.logger.Info("BinanceClient: connecting to WebSocket", "url", b.wsURL, "backoff", backoff)
			c, _, err := websocket.DefaultDialer.DialContext(ctx, b.wsURL, nil)
			if err != nil {
				b.logger.Error("BinanceClient: WebSocket connection failed", "error", err)
				select {
				case <-ctx.Done():
					return nil
				case <-time.After(backoff):
					backoff *= 2
					if backoff > 16*time.Second {
						backoff = 16 * time.Second
					}
				}
				continue
			}

			// Reset backoff on successful connection
			backoff = time.Second
			b.logger.Info("BinanceClient: connected successfully")

			if err := b.readLoop(ctx, c, quotes); err != nil {
				return nil
			}
		}
	}
}

// readLoop consumes ticker messages until the connection breaks (returning
// nil to trigger reconnection) or the context is cancelled.
func (b *BinanceClient) readLoop(ctx context.Context, c *websocket.Conn, quotes chan<- model.ExchangeQuote) error {
	defer c.Close()
	for {
		select {
		case <-ctx.Done():
			b.logger.Info("BinanceClient: context cancelled, closing connection")
			return ctx.Err()
		default:
			_, message, err := c.ReadMessage()
			if err != nil {
				b.logger.Error("BinanceClient: failed to read message", "error", err)
				return nil
			}

			parsed, err := parseBinanceTickers(message, time.Now())
			if err != nil {
				b.logger.Warn("BinanceClient: failed to parse message", "error", err)
				continue
			}

			for _, quote := range parsed {
				select {
				case quotes <- quote:
				case <-ctx.Done():
					b.logger.Info("BinanceClient: context cancelled while sending quote")
					return ctx.Err()
				}
			}
		}
	}
}

// binanceTicker is one element of the !ticker@arr payload.
type binanceTicker struct {
	Symbol      string `json:"s"`
	LastPrice   string `json:"c"`
	QuoteVolume string `json:"q"`
}

// parseBinanceTickers converts an all-market ticker message into quotes.
// Entries with malformed numbers are skipped rather than failing the batch.
func parseBinanceTickers(message []byte, observedAt time.Time) ([]model.ExchangeQuote, error) {
	var tickers []binanceTicker
	if err := json.Unmarshal(message, &tickers); err != nil {
		return nil, fmt.Errorf("unmarshal ticker array: %w", err)
	}

	quotes := make([]model.ExchangeQuote, 0, len(tickers))
	for _, t := range tickers {
		last, err := decimal.NewFromString(t.LastPrice)
		if err != nil {
			continue
		}
		volume, err := decimal.NewFromString(t.QuoteVolume)
		if err != nil {
			continue
		}
		quotes = append(quotes, model.ExchangeQuote{
			Exchange:     "binance",
			NativeSymbol: t.Symbol,
			LastPrice:    last,
			Volume24hUSD: volume,
			Tradable:     true,
			ObservedAt:   observedAt,
		})
	}
	return quotes, nil
}

// Symbols lists natively tradable symbols from the exchangeInfo endpoint.
func (b *BinanceClient) Symbols(ctx context.Context) ([]string, error) {
	body, err := b.get(ctx, b.restURL+"/api/v3/exchangeInfo")
	if err != nil {
		return nil, err
	}

	var info struct {
		Symbols []struct {
			Symbol string `json:"symbol"`
			Status string `json:"status"`
		} `json:"symbols"`
	}
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("unmarshal exchangeInfo: %w", err)
	}

	symbols := make([]string, 0, len(info.Symbols))
	for _, s := range info.Symbols {
		if s.Status == "TRADING" {
			symbols = append(symbols, s.Symbol)
		}
	}
	return symbols, nil
}

// OrderBook fetches a depth snapshot for one native symbol.
func (b *BinanceClient) OrderBook(ctx context.Context, nativeSymbol string, depth int) (*model.OrderBookSnapshot, error) {
	endpoint := fmt.Sprintf("%s/api/v3/depth?symbol=%s&limit=%d",
		b.restURL, url.QueryEscape(nativeSymbol), depth)
	body, err := b.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var book struct {
		Bids [][2]string `json:"bids"`
		Asks [][2]string `json:"asks"`
	}
	if err := json.Unmarshal(body, &book); err != nil {
		return nil, fmt.Errorf("unmarshal depth for %s: %w", nativeSymbol, err)
	}

	snapshot := &model.OrderBookSnapshot{
		Exchange:     "binance",
		NativeSymbol: nativeSymbol,
		Bids:         parseLevels(book.Bids),
		Asks:         parseLevels(book.Asks),
		Depth:        depth,
		CapturedAt:   time.Now(),
	}
	return snapshot, nil
}

func (b *BinanceClient) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := b.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("binance request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("binance request: unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// parseLevels converts [price, quantity] string pairs, skipping malformed
// entries so a single bad level does not discard the snapshot.
func parseLevels(raw [][2]string) []model.PriceLevel {
	levels := make([]model.PriceLevel, 0, len(raw))
	for _, entry := range raw {
		price, err := decimal.NewFromString(entry[0])
		if err != nil {
			continue
		}
		qty, err := decimal.NewFromString(entry[1])
		if err != nil {
			continue
		}
		levels = append(levels, model.PriceLevel{Price: price, Qty: qty})
	}
	return levels
}
