package websocket

import (
	"log/slog"
	"net/http"
	"time"

	ws "github.com/coder/websocket"
)

// Subject identifies what a connecting page is showing.
type Subject struct {
	Slug    string
	Session string
	Target  time.Time
}

// SubjectFunc resolves the subject of an upgrade request, typically from its
// session cookie.
type SubjectFunc func(r *http.Request) (Subject, bool)

// HandleWebSocket upgrades connections from known pages and runs them as Hub
// clients. originPatterns restricts cross-origin upgrades; nil allows only
// same-origin requests.
func HandleWebSocket(hub *Hub, subject SubjectFunc, originPatterns []string, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub, ok := subject(r)
		if !ok {
			http.Error(w, "unknown session", http.StatusUnauthorized)
			return
		}

		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			OriginPatterns: originPatterns,
		})
		if err != nil {
			logger.Warn("websocket accept", "error", err)
			return
		}
		defer conn.CloseNow()

		NewClient(hub, conn, sub).Run(r.Context())
	}
}
