package ethereum

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/fd1az/chainwatch/business/observer/domain"
	"github.com/fd1az/chainwatch/internal/logger"
	"github.com/fd1az/chainwatch/internal/wsconn"
)

// HeadStreamerConfig holds configuration for the new-heads streamer.
type HeadStreamerConfig struct {
	WSURL    string
	Debounce time.Duration // minimum gap between delivered head events
}

// DefaultHeadStreamerConfig returns sensible defaults.
func DefaultHeadStreamerConfig(wsURL string) HeadStreamerConfig {
	return HeadStreamerConfig{
		WSURL:    wsURL,
		Debounce: 500 * time.Millisecond,
	}
}

// HeadStreamer subscribes to newHeads over a raw WebSocket JSON-RPC
// connection and fans events out to registered callbacks. Subscriptions
// are scoped: the unsubscribe func returned on registration releases them.
type HeadStreamer struct {
	config HeadStreamerConfig
	logger logger.LoggerInterface

	ws *wsconn.Client

	subMu  sync.Mutex
	subs   map[int]func(domain.HeadEvent)
	nextID int

	lastDelivery time.Time

	headsReceived metric.Int64Counter
}

// NewHeadStreamer creates a new-heads streamer.
func NewHeadStreamer(cfg HeadStreamerConfig, log logger.LoggerInterface) (*HeadStreamer, error) {
	ws, err := wsconn.New(wsconn.DefaultConfig(cfg.WSURL, "eth-heads"))
	if err != nil {
		return nil, err
	}

	meter := otel.Meter(meterName)
	headsReceived, err := meter.Int64Counter(
		"chain_heads_received_total",
		metric.WithDescription("Total new-head notifications received"),
		metric.WithUnit("{head}"),
	)
	if err != nil {
		return nil, err
	}

	s := &HeadStreamer{
		config:        cfg,
		logger:        log,
		ws:            ws,
		subs:          make(map[int]func(domain.HeadEvent)),
		headsReceived: headsReceived,
	}

	// Replay the subscription after every (re)connect.
	ws.OnReconnect(func() {
		s.requestSubscription(context.Background())
	})

	return s, nil
}

// Start connects the WebSocket and begins dispatching head events.
func (s *HeadStreamer) Start(ctx context.Context) error {
	if err := s.ws.Connect(ctx); err != nil {
		return err
	}

	go s.dispatchLoop(ctx)

	s.logger.Info(ctx, "head streamer started", "url", s.config.WSURL)
	return nil
}

// SubscribeNewHeads registers a callback; the returned func releases it.
func (s *HeadStreamer) SubscribeNewHeads(fn func(domain.HeadEvent)) func() {
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

// Close stops the streamer and its WebSocket connection.
func (s *HeadStreamer) Close() error {
	return s.ws.Close()
}

func (s *HeadStreamer) requestSubscription(ctx context.Context) {
	req := []byte(`{"id":1,"jsonrpc":"2.0","method":"eth_subscribe","params":["newHeads"]}`)
	if err := s.ws.Send(ctx, req); err != nil {
		s.logger.Warn(ctx, "newHeads subscribe request failed", "error", err)
	}
}

// subscriptionMessage is the JSON-RPC notification envelope.
type subscriptionMessage struct {
	Method string `json:"method"`
	Params struct {
		Result headPayload `json:"result"`
	} `json:"params"`
}

// headPayload is the subset of the newHeads header payload we consume.
type headPayload struct {
	Number    *hexutil.Big   `json:"number"`
	Hash      common.Hash    `json:"hash"`
	Timestamp hexutil.Uint64 `json:"timestamp"`
}

func (s *HeadStreamer) dispatchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case raw, ok := <-s.ws.Messages():
			if !ok {
				return
			}
			s.handleMessage(ctx, raw)
		}
	}
}

func (s *HeadStreamer) handleMessage(ctx context.Context, raw []byte) {
	var msg subscriptionMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		s.logger.Debug(ctx, "ignoring unparseable ws message", "error", err)
		return
	}
	if msg.Method != "eth_subscription" || msg.Params.Result.Number == nil {
		return
	}

	s.headsReceived.Add(ctx, 1)

	// Debounce bursts of heads (e.g. after reconnect catch-up).
	now := time.Now()
	if s.config.Debounce > 0 && now.Sub(s.lastDelivery) < s.config.Debounce {
		return
	}
	s.lastDelivery = now

	event := domain.HeadEvent{
		Number:    msg.Params.Result.Number.ToInt().Uint64(),
		Hash:      msg.Params.Result.Hash,
		Timestamp: time.Unix(int64(msg.Params.Result.Timestamp), 0),
	}

	s.subMu.Lock()
	subs := make([]func(domain.HeadEvent), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.subMu.Unlock()

	for _, fn := range subs {
		fn(event)
	}

	s.logger.Debug(ctx, "head event dispatched",
		"number", event.Number,
		"subscribers", len(subs))
}
