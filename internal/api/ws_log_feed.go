package api

import (
	"log"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"agentsearch/internal/auditlog"
	"agentsearch/internal/auth"
	"agentsearch/internal/config"
)

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// logFeedClientBuffer is the per-client backlog. Clients that cannot keep
// up with the broadcast rate are disconnected rather than block the pipeline.
const logFeedClientBuffer = 16

// LogFeed fans out newly recorded search-log entries to websocket clients.
type LogFeed struct {
	mu      sync.Mutex
	clients map[chan auditlog.WebSearchLogEntry]struct{}
}

func NewLogFeed(store *auditlog.Store) *LogFeed {
	f := &LogFeed{clients: make(map[chan auditlog.WebSearchLogEntry]struct{})}
	store.Subscribe(f.broadcast)
	return f
}

func (f *LogFeed) broadcast(entry auditlog.WebSearchLogEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.clients {
		select {
		case ch <- entry:
		default:
			// Slow consumer: close its channel so the writer loop exits.
			delete(f.clients, ch)
			close(ch)
		}
	}
}

func (f *LogFeed) register() chan auditlog.WebSearchLogEntry {
	ch := make(chan auditlog.WebSearchLogEntry, logFeedClientBuffer)
	f.mu.Lock()
	f.clients[ch] = struct{}{}
	f.mu.Unlock()
	return ch
}

func (f *LogFeed) clientCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.clients)
}

func (f *LogFeed) unregister(ch chan auditlog.WebSearchLogEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.clients[ch]; ok {
		delete(f.clients, ch)
		close(ch)
	}
}

// WSLogFeedHandler streams each search-log entry as a JSON message.
// Browsers cannot set an Authorization header on websocket dials, so the
// token may also arrive as a query parameter.
func WSLogFeedHandler(cfg *config.Config, feed *LogFeed) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("Authorization")
		if token == "" {
			token = c.Query("token")
		}
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": gin.H{"message": "missing JWT"}})
			return
		}
		token = strings.TrimPrefix(token, "Bearer ")
		if _, err := auth.ParseJWT(cfg.Server.JWTSecret, token); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": gin.H{"message": "invalid JWT"}})
			return
		}

		conn, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Println("[WSLogFeed] upgrade failed:", err)
			return
		}
		defer conn.Close()

		ch := feed.register()
		defer feed.unregister(ch)

		// Drain reads so close frames are processed; a read error means the
		// client went away, and unregistering closes ch to end the write loop.
		go func() {
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					feed.unregister(ch)
					return
				}
			}
		}()

		for entry := range ch {
			if err := conn.WriteJSON(entry); err != nil {
				return
			}
		}
	}
}
