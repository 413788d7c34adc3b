// Package blockstream keeps a mutex-guarded view of the chain's latest
// block number, fed by a newHeads websocket subscription with a
// reconnect loop, the same run/reconnect/stop shape the teacher's
// internal/binance.Client uses for its trade stream.
package blockstream

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Stream implements internal/cache.BlockStream.
type Stream struct {
	wsURL string

	mu      sync.RWMutex
	conn    *websocket.Conn
	block   uint64
	haveOne bool

	running bool
	stopCh  chan struct{}
}

func New(wsURL string) *Stream {
	return &Stream{
		wsURL:  wsURL,
		stopCh: make(chan struct{}),
	}
}

// Start connects and begins streaming newHeads notifications in the
// background until Stop is called.
func (s *Stream) Start() {
	s.running = true
	go s.run()
}

func (s *Stream) Stop() {
	s.running = false
	close(s.stopCh)
	s.mu.Lock()
	if s.conn != nil {
		s.conn.Close()
	}
	s.mu.Unlock()
}

// LatestBlockNumber implements internal/cache.BlockStream.
func (s *Stream) LatestBlockNumber() (uint64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.block, s.haveOne
}

func (s *Stream) run() {
	for s.running {
		if err := s.connect(); err != nil {
			log.Error().Err(err).Msg("blockstream: websocket connection failed")
			time.Sleep(5 * time.Second)
			continue
		}

		s.readLoop()

		if s.running {
			log.Warn().Msg("blockstream: disconnected, reconnecting")
			time.Sleep(1 * time.Second)
		}
	}
}

func (s *Stream) connect() error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.Dial(s.wsURL, nil)
	if err != nil {
		return fmt.Errorf("blockstream: dial failed: %w", err)
	}

	sub := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "eth_subscribe",
		"params":  []string{"newHeads"},
	}
	if err := conn.WriteJSON(sub); err != nil {
		conn.Close()
		return fmt.Errorf("blockstream: subscribe failed: %w", err)
	}

	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()

	log.Info().Str("url", s.wsURL).Msg("blockstream: connected")
	return nil
}

type subscriptionNotification struct {
	Params struct {
		Result struct {
			Number string `json:"number"`
		} `json:"result"`
	} `json:"params"`
}

func (s *Stream) readLoop() {
	for {
		s.mu.RLock()
		conn := s.conn
		s.mu.RUnlock()
		if conn == nil {
			return
		}

		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var notif subscriptionNotification
		if err := json.Unmarshal(raw, &notif); err != nil {
			continue
		}
		if notif.Params.Result.Number == "" {
			continue
		}

		var n uint64
		if _, err := fmt.Sscanf(notif.Params.Result.Number, "0x%x", &n); err != nil {
			continue
		}

		s.mu.Lock()
		s.block = n
		s.haveOne = true
		s.mu.Unlock()
	}
}
