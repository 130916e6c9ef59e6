package main

import (
	"database/sql"
	"log"
	"sync"
	"time"
)

// Event types for analytics tracking
const (
	EvtMatchStart   = "match_start"
	EvtMatchEnd     = "match_end"
	EvtEndScored    = "end_scored"
	EvtPowerUp      = "powerup"
	EvtSessionStart = "session_start"
	EvtSessionEnd   = "session_end"
)

// AnalyticsEvent represents a single trackable event
type AnalyticsEvent struct {
	Type      string
	SessionID string
	Data      string // JSON metadata (optional)
	Timestamp time.Time
}

// Analytics handles event tracking with batched background writes
type Analytics struct {
	db     *DB
	events chan AnalyticsEvent
	stop   chan struct{}
	wg     sync.WaitGroup
}

// NewAnalytics creates and starts the analytics background writer
func NewAnalytics(db *DB) *Analytics {
	a := &Analytics{
		db:     db,
		events: make(chan AnalyticsEvent, 1024),
		stop:   make(chan struct{}),
	}
	a.wg.Add(1)
	go a.writer()
	return a
}

// Track enqueues an event for async persistence (non-blocking)
func (a *Analytics) Track(evtType string, sessionID string, data string) {
	select {
	case a.events <- AnalyticsEvent{
		Type:      evtType,
		SessionID: sessionID,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}:
	default:
		// Channel full, drop the event
	}
}

// Stop gracefully shuts down the analytics writer
func (a *Analytics) Stop() {
	close(a.stop)
	a.wg.Wait()
}

// writer is the background goroutine that batches and writes events to DB
func (a *Analytics) writer() {
	defer a.wg.Done()

	batch := make([]AnalyticsEvent, 0, 64)
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case evt := <-a.events:
			batch = append(batch, evt)
			if len(batch) >= 50 {
				a.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				a.flush(batch)
				batch = batch[:0]
			}
		case <-a.stop:
			// Drain whatever is buffered
			for {
				select {
				case evt := <-a.events:
					batch = append(batch, evt)
					continue
				default:
				}
				break
			}
			if len(batch) > 0 {
				a.flush(batch)
			}
			return
		}
	}
}

// flush writes a batch of events to the database
func (a *Analytics) flush(events []AnalyticsEvent) {
	if a.db == nil || len(events) == 0 {
		return
	}
	tx, err := a.db.conn.Begin()
	if err != nil {
		log.Printf("analytics: begin tx error: %v", err)
		return
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO analytics_events (event_type, session_id, data, created_at) VALUES (?, ?, ?, ?)`)
	if err != nil {
		log.Printf("analytics: prepare error: %v", err)
		return
	}
	defer stmt.Close()

	for _, evt := range events {
		sid := sql.NullString{String: evt.SessionID, Valid: evt.SessionID != ""}
		data := sql.NullString{String: evt.Data, Valid: evt.Data != ""}
		_, err := stmt.Exec(evt.Type, sid, data, evt.Timestamp.Format(time.RFC3339))
		if err != nil {
			log.Printf("analytics: insert error: %v", err)
		}
	}
	if err := tx.Commit(); err != nil {
		log.Printf("analytics: commit error: %v", err)
	}
}

// EventCounts returns counts of each event type for the last N days
func (a *Analytics) EventCounts(days int) (map[string]int, error) {
	if a.db == nil {
		return nil, nil
	}
	rows, err := a.db.conn.Query(`
		SELECT event_type, COUNT(*) FROM analytics_events
		WHERE created_at >= date('now', '-' || ? || ' days')
		GROUP BY event_type ORDER BY COUNT(*) DESC
	`, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]int)
	for rows.Next() {
		var evtType string
		var count int
		if err := rows.Scan(&evtType, &count); err != nil {
			continue
		}
		result[evtType] = count
	}
	return result, rows.Err()
}

// PowerUpCounts returns how often each wheel outcome was selected
func (a *Analytics) PowerUpCounts() (map[string]int, error) {
	if a.db == nil {
		return nil, nil
	}
	rows, err := a.db.conn.Query(`
		SELECT COALESCE(json_extract(data, '$.powerup'), 'unknown') AS p, COUNT(*)
		FROM analytics_events
		WHERE event_type = ? AND json_valid(data)
		GROUP BY p
	`, EvtPowerUp)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]int)
	for rows.Next() {
		var p string
		var count int
		if err := rows.Scan(&p, &count); err != nil {
			continue
		}
		result[p] = count
	}
	return result, rows.Err()
}
