package feed

import (
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/pkaraca/stockmatch/internal/transport"
)

type outboundMessage struct {
	Type string                 `json:"type"`
	Data transport.TradeMessage `json:"data"`
}

// StreamHandler serves the live trade stream over a websocket.
type StreamHandler struct {
	feed     *TradeFeed
	upgrader websocket.Upgrader
	log      *zap.Logger
}

func NewStreamHandler(feed *TradeFeed, log *zap.Logger) *StreamHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &StreamHandler{
		feed:     feed,
		upgrader: websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		log:      log,
	}
}

func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	sub := h.feed.Subscribe(32)
	defer h.feed.Unsubscribe(sub)

	for m := range sub.C() {
		if err := conn.WriteJSON(outboundMessage{Type: "trade", Data: m}); err != nil {
			h.log.Debug("trade stream client gone", zap.Error(err))
			return
		}
	}
}
