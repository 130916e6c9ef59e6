package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	seatExpiry      = 12 * time.Hour
	bcryptCost      = 10
	minPINLen       = 4
	maxPINLen       = 12
	joinRateWindow  = 60 * time.Second
	maxJoinAttempts = 10
)

// Seat is a player's place in a session, carried in a token
type Seat struct {
	SessionID string
	Name      string
	Team      Team
}

// Auth issues seat tokens and guards private sessions
type Auth struct {
	jwtSecret []byte

	// Rate limiting for PIN attempts (IP -> attempts)
	rateMu  sync.Mutex
	rateMap map[string]*rateEntry
}

type rateEntry struct {
	Count   int
	ResetAt time.Time
}

// NewAuth creates a new Auth handler
func NewAuth(db *DB) *Auth {
	return &Auth{
		jwtSecret: loadOrCreateSecret(db),
		rateMap:   make(map[string]*rateEntry),
	}
}

// loadOrCreateSecret loads the JWT secret from the database, or generates
// and persists a new one if none exists.
func loadOrCreateSecret(db *DB) []byte {
	if db != nil {
		if h := db.GetSetting("jwt_secret"); h != "" {
			if b, err := hex.DecodeString(h); err == nil && len(b) == 32 {
				return b
			}
		}
	}
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		panic("failed to generate JWT secret: " + err.Error())
	}
	if db != nil {
		if err := db.SetSetting("jwt_secret", hex.EncodeToString(secret)); err != nil {
			log.Printf("warning: could not persist JWT secret: %v", err)
		}
	}
	return secret
}

// IssueSeat signs a token for a seated player
func (a *Auth) IssueSeat(seat Seat) (string, error) {
	claims := jwt.MapClaims{
		"sid":  seat.SessionID,
		"usr":  seat.Name,
		"team": seat.Team.String(),
		"exp":  time.Now().Add(seatExpiry).Unix(),
		"iat":  time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.jwtSecret)
}

// ValidateSeat validates a seat token
func (a *Auth) ValidateSeat(tokenStr string) (Seat, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return a.jwtSecret, nil
	})
	if err != nil {
		return Seat{}, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return Seat{}, fmt.Errorf("invalid token")
	}
	sid, ok := claims["sid"].(string)
	if !ok {
		return Seat{}, fmt.Errorf("invalid token claims")
	}
	name, _ := claims["usr"].(string)
	teamName, _ := claims["team"].(string)
	team, ok := ParseTeam(teamName)
	if !ok {
		return Seat{}, fmt.Errorf("invalid token claims")
	}
	return Seat{SessionID: sid, Name: name, Team: team}, nil
}

// HashPIN hashes a private-session PIN. An empty PIN yields an empty hash.
func HashPIN(pin string) (string, error) {
	if pin == "" {
		return "", nil
	}
	if len(pin) < minPINLen || len(pin) > maxPINLen {
		return "", fmt.Errorf("pin must be %d-%d characters", minPINLen, maxPINLen)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("internal error")
	}
	return string(hash), nil
}

// CheckPIN verifies a PIN attempt for a session, rate limited per IP
func (a *Auth) CheckPIN(sess *Session, pin, ip string) error {
	if !sess.Private() {
		return nil
	}
	if !a.checkRate(ip) {
		return fmt.Errorf("too many attempts, try again later")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(sess.pinHash), []byte(pin)); err != nil {
		return fmt.Errorf("wrong pin")
	}
	return nil
}

func (a *Auth) checkRate(ip string) bool {
	a.rateMu.Lock()
	defer a.rateMu.Unlock()

	now := time.Now()
	entry, ok := a.rateMap[ip]
	if !ok || now.After(entry.ResetAt) {
		a.rateMap[ip] = &rateEntry{Count: 1, ResetAt: now.Add(joinRateWindow)}
		return true
	}
	entry.Count++
	return entry.Count <= maxJoinAttempts
}
