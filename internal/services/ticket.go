package services

import (
	"crypto/rand"
	"errors"
	"slices"
	"time"

	"tableadmin/internal/domain"
	"tableadmin/internal/domain/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTicketTTL bounds how long a confirmation dialog stays valid.
const DefaultTicketTTL = 5 * time.Minute

// TicketClaims bind a confirmation to exactly one prepared bulk action.
type TicketClaims struct {
	Action    ActionKind    `json:"action"`
	IDs       []int64       `json:"ids"`
	Status    models.Status `json:"status,omitempty"`
	Total     string        `json:"total"`
	SessionID string        `json:"sid"`
	jwt.RegisteredClaims
}

// TicketSigner issues and verifies HS256 confirmation tickets.
type TicketSigner struct {
	secret []byte
	TTL    time.Duration
	Now    func() time.Time
}

// NewTicketSigner uses secret, or a random per-process key when it is empty
// (tickets then do not survive a restart).
func NewTicketSigner(secret string) *TicketSigner {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		_, _ = rand.Read(key)
	}
	return &TicketSigner{secret: key, TTL: DefaultTicketTTL, Now: time.Now}
}

func (s *TicketSigner) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Issue signs a ticket for p and returns it with its id and expiry.
func (s *TicketSigner) Issue(p PendingAction, sessionID string) (token, jti string, exp time.Time, err error) {
	now := s.now()
	ttl := s.TTL
	if ttl <= 0 {
		ttl = DefaultTicketTTL
	}
	jti = uuid.NewString()
	exp = now.Add(ttl)
	claims := TicketClaims{
		Action:    p.Kind,
		IDs:       p.IDs,
		Status:    p.Target,
		Total:     p.TotalText,
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", "", time.Time{}, err
	}
	return token, jti, exp, nil
}

// Verify checks signature and expiry.
func (s *TicketSigner) Verify(token string) (TicketClaims, error) {
	var claims TicketClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return TicketClaims{}, domain.ValidationError{Field: "ticket", Msg: "confirmation expired, prepare the action again", Err: err}
		}
		return TicketClaims{}, domain.ValidationError{Field: "ticket", Msg: "invalid confirmation ticket", Err: err}
	}
	return claims, nil
}

// matches reports whether verified claims describe the pending action.
func (c TicketClaims) matches(p PendingAction, sessionID string) bool {
	return c.ID == p.ticketID &&
		c.SessionID == sessionID &&
		c.Action == p.Kind &&
		c.Status == p.Target &&
		slices.Equal(c.IDs, p.IDs)
}
