package main

import (
	"encoding/json"
	"log"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/gorilla/websocket"
	"github.com/skip2/go-qrcode"
)

const (
	qrSize          = 256
	historyDefault  = 20
	historyMaxLimit = 100
)

var uuidPathRe = regexp.MustCompile(`^/[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true // Non-browser clients don't send Origin
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return u.Host == r.Host
	},
}

func extractIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// joinURL is the address a headset opens to join a sheet
func joinURL(hub *Hub, r *http.Request, sid string) string {
	base := hub.publicURL
	if base == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		base = scheme + "://" + r.Host
	}
	return base + "/" + sid
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write json: %v", err)
	}
}

// SetupRoutes configures HTTP routes. An empty clientDir disables static files.
func SetupRoutes(hub *Hub, clientDir string) *http.ServeMux {
	mux := http.NewServeMux()

	if clientDir != "" {
		if _, err := os.Stat(clientDir); err != nil {
			log.Printf("client directory %s unavailable: %v", clientDir, err)
		}
		// Serve static files with no-cache so browsers always revalidate
		fs := http.FileServer(http.Dir(clientDir))
		mux.Handle("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "no-cache")
			// SPA: serve index.html for root and session paths
			if r.URL.Path == "/" || uuidPathRe.MatchString(r.URL.Path) {
				http.ServeFile(w, r, filepath.Join(clientDir, "index.html"))
				return
			}
			fs.ServeHTTP(w, r)
		}))
	}

	// WebSocket endpoint
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		ip := extractIP(r)
		if !hub.CanAccept(ip) {
			http.Error(w, "too many connections", http.StatusServiceUnavailable)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("upgrade error: %v", err)
			return
		}

		hub.TrackConnect(ip)

		client := NewClient(hub, conn, ip)
		hub.register <- client

		go client.WritePump()
		go client.ReadPump()
	})

	// Join code for a sheet
	mux.HandleFunc("/qr", func(w http.ResponseWriter, r *http.Request) {
		sid := r.URL.Query().Get("sid")
		if hub.sessions.GetSession(sid) == nil {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		png, err := qrcode.Encode(joinURL(hub, r, sid), qrcode.Medium, qrSize)
		if err != nil {
			log.Printf("qr encode: %v", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-cache")
		w.Write(png)
	})

	mux.HandleFunc("/api/history", func(w http.ResponseWriter, r *http.Request) {
		if hub.db == nil {
			writeJSON(w, []MatchRow{})
			return
		}
		limit := historyDefault
		if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
			limit = min(v, historyMaxLimit)
		}
		rows, err := hub.db.RecentMatches(limit)
		if err != nil {
			log.Printf("history: %v", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		for i := range rows {
			ends, err := hub.db.MatchEnds(rows[i].ID)
			if err != nil {
				log.Printf("history ends %d: %v", rows[i].ID, err)
				continue
			}
			rows[i].EndScores = ends
		}
		if rows == nil {
			rows = []MatchRow{}
		}
		writeJSON(w, rows)
	})

	mux.HandleFunc("/api/stats", func(w http.ResponseWriter, r *http.Request) {
		stats := map[string]interface{}{
			"sessions": hub.sessions.Count(),
			"clients":  hub.ClientCount(),
		}
		if hub.db != nil {
			if red, blue, err := hub.db.TeamWins(); err == nil {
				stats["wins"] = map[string]int{"red": red, "blue": blue}
			}
		}
		if hub.analytics != nil {
			if counts, err := hub.analytics.EventCounts(7); err == nil {
				stats["events"] = counts
			}
			if counts, err := hub.analytics.PowerUpCounts(); err == nil {
				stats["powerups"] = counts
			}
		}
		writeJSON(w, stats)
	})

	return mux
}
