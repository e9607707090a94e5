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
	gateWSURL   = "wss://api.gateio.ws/ws/v4/"
	gateRESTURL = "https://api.gateio.ws"
)

// GateClient implements the Client interface for Gate.io.
type GateClient struct {
	logger  *slog.Logger
	http    *http.Client
	wsURL   string
	restURL string
}

// NewGateClient creates a new GateClient.
func NewGateClient(logger *slog.Logger) *GateClient {
	return &GateClient{
		logger:  logger,
		http:    &http.Client{Timeout: 10 * time.Second},
		wsURL:   gateWSURL,
		restURL: gateRESTURL,
	}
}

func (g *GateClient) Name() string {
	return "gate"
}

// StreamTickers subscribes to the spot.tickers channel for every tradable
// pair and pushes quote updates until the context is cancelled. Gate requires
// an explicit pair list on subscribe, so the symbol universe is fetched
// before each (re)connection.
func (g *GateClient) StreamTickers(ctx context.Context, quotes chan<- model.ExchangeQuote) error {
	backoff := time.Second
	for {
		select {
		case <-ctx.Done():
			g.logger.Info("GateClient: context cancelled, shutting down")
			return nil
		default:
			symbols, err := g.Symbols(ctx)
			if err != nil {
				g.logger.Error("GateClient: failed to list symbols", "error", err)
				if !g.wait(ctx, &backoff) {
					return nil
				}
				continue
			}

			g.logger.Info("GateClient: connecting to WebSocket", "url", g.wsURL, "backoff", backoff)
			c, _, err := websocket.DefaultDialer.DialContext(ctx, g.wsURL, nil)
			if err != nil {
				g.logger.Error("GateClient: WebSocket connection failed", "error", err)
				if !g.wait(ctx, &backoff) {
					return nil
				}
				continue
			}

			subscription := map[string]interface{}{
				"time":    time.Now().Unix(),
				"channel": "spot.tickers",
				"event":   "subscribe",
				"payload": symbols,
			}
			if err := c.WriteJSON(subscription); err != nil {
				g.logger.Error("GateClient: failed to send subscription", "error", err)
				c.Close()
				if !g.wait(ctx, &backoff) {
					return nil
				}
				continue
			}
			g.logger.Info("GateClient: subscription sent", "pairs", len(symbols))

			// Reset backoff on successful connection
			backoff = time.Second

			if err := g.readLoop(ctx, c, quotes); err != nil {
				return nil
			}
		}
	}
}

// wait sleeps for the current backoff, doubling it up to the cap. It returns
// false when the context was cancelled during the wait.
func (g *GateClient) wait(ctx context.Context, backoff *time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(*backoff):
		*backoff *= 2
		if *backoff > 16*time.Second {
			*backoff = 16 * time.Second
		}
		return true
	}
}

func (g *GateClient) readLoop(ctx context.Context, c *websocket.Conn, quotes chan<- model.ExchangeQuote) error {
	defer c.Close()
	for {
		select {
		case <-ctx.Done():
			g.logger.Info("GateClient: context cancelled, closing connection")
			return ctx.Err()
		default:
			_, message, err := c.ReadMessage()
			if err != nil {
				g.logger.Error("GateClient: failed to read message", "error", err)
				return nil
			}

			quote, ok, err := parseGateTicker(message, time.Now())
			if err != nil {
				g.logger.Warn("GateClient: failed to parse message", "error", err)
				continue
			}
			if !ok {
				// Subscription confirmations and pings carry no ticker.
				continue
			}

			select {
			case quotes <- quote:
			case <-ctx.Done():
				g.logger.Info("GateClient: context cancelled while sending quote")
				return ctx.Err()
			}
		}
	}
}

// gateMessage is the envelope of a spot.tickers frame.
type gateMessage struct {
	Channel string `json:"channel"`
	Event   string `json:"event"`
	Result  struct {
		CurrencyPair string `json:"currency_pair"`
		Last         string `json:"last"`
		QuoteVolume  string `json:"quote_volume"`
	} `json:"result"`
}

// parseGateTicker extracts a quote from a ticker update frame. The second
// return value is false for frames that are not ticker updates.
func parseGateTicker(message []byte, observedAt time.Time) (model.ExchangeQuote, bool, error) {
	var msg gateMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		return model.ExchangeQuote{}, false, fmt.Errorf("unmarshal frame: %w", err)
	}
	if msg.Channel != "spot.tickers" || msg.Event != "update" {
		return model.ExchangeQuote{}, false, nil
	}

	last, err := decimal.NewFromString(msg.Result.Last)
	if err != nil {
		return model.ExchangeQuote{}, false, fmt.Errorf("parse last price %q: %w", msg.Result.Last, err)
	}
	volume, err := decimal.NewFromString(msg.Result.QuoteVolume)
	if err != nil {
		return model.ExchangeQuote{}, false, fmt.Errorf("parse quote volume %q: %w", msg.Result.QuoteVolume, err)
	}

	return model.ExchangeQuote{
		Exchange:     "gate",
		NativeSymbol: msg.Result.CurrencyPair,
		LastPrice:    last,
		Volume24hUSD: volume,
		Tradable:     true,
		ObservedAt:   observedAt,
	}, true, nil
}

// Symbols lists currency pairs whose trade status is tradable.
func (g *GateClient) Symbols(ctx context.Context) ([]string, error) {
	body, err := g.get(ctx, g.restURL+"/api/v4/spot/currency_pairs")
	if err != nil {
		return nil, err
	}

	var pairs []struct {
		ID          string `json:"id"`
		TradeStatus string `json:"trade_status"`
	}
	if err := json.Unmarshal(body, &pairs); err != nil {
		return nil, fmt.Errorf("unmarshal currency pairs: %w", err)
	}

	symbols := make([]string, 0, len(pairs))
	for _, p := range pairs {
		if p.TradeStatus == "tradable" {
			symbols = append(symbols, p.ID)
		}
	}
	return symbols, nil
}

// OrderBook fetches a depth snapshot for one currency pair.
func (g *GateClient) OrderBook(ctx context.Context, nativeSymbol string, depth int) (*model.OrderBookSnapshot, error) {
	endpoint := fmt.Sprintf("%s/api/v4/spot/order_book?currency_pair=%s&limit=%d",
		g.restURL, url.QueryEscape(nativeSymbol), depth)
	body, err := g.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var book struct {
		Bids [][2]string `json:"bids"`
		Asks [][2]string `json:"asks"`
	}
	if err := json.Unmarshal(body, &book); err != nil {
		return nil, fmt.Errorf("unmarshal order book for %s: %w", nativeSymbol, err)
	}

	return &model.OrderBookSnapshot{
		Exchange:     "gate",
		NativeSymbol: nativeSymbol,
		Bids:         parseLevels(book.Bids),
		Asks:         parseLevels(book.Asks),
		Depth:        depth,
		CapturedAt:   time.Now(),
	}, nil
}

func (g *GateClient) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := g.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gate request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gate request: unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
