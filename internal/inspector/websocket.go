package inspector

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sergw-project/sergw/internal/logging"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// wireSample is the JSON shape pushed to a debug client, one message per
// observed Sample.
type wireSample struct {
	Direction string `json:"direction"`
	From      string `json:"from,omitempty"`
	Format    string `json:"format"`
	Data      string `json:"data"`
}

// Handler serves a read-only websocket stream of Broker samples, for a
// developer watching live traffic during debugging. It is a supplemental
// endpoint, not part of the core data path: a slow or disconnected client
// can only ever miss samples, never slow the gateway down.
type Handler struct {
	Broker *Broker
	Format DumpFormat
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := logging.L().With("remote", r.RemoteAddr)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("inspector_upgrade_failed", "error", err)
		http.Error(w, "websocket upgrade failed", http.StatusBadRequest)
		return
	}
	defer conn.Close()

	rx := h.Broker.Subscribe()
	defer h.Broker.Unsubscribe(rx)

	log.Info("inspector_client_connected")
	defer log.Info("inspector_client_disconnected")

	for raw := range rx {
		sample, ok := raw.(Sample)
		if !ok {
			continue
		}
		wire := wireSample{
			Direction: sample.Tag.String(),
			Format:    dumpFormatName(h.Format),
			Data:      Dump(sample.Data, h.Format),
		}
		if sample.Tag.Dir == Outbound && sample.Tag.From != nil {
			wire.From = sample.Tag.From.String()
		}
		payload, err := json.Marshal(wire)
		if err != nil {
			continue
		}
		conn.SetWriteDeadline(time.Now().Add(50 * time.Millisecond))
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}

func dumpFormatName(f DumpFormat) string {
	switch f {
	case DumpAscii:
		return "ascii"
	case DumpDec:
		return "dec"
	default:
		return "hex"
	}
}
