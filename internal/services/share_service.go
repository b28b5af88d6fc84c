package services

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/soaringjerry/Solace/internal/assessment"
)

const (
	DefaultShareTTL = 7 * 24 * time.Hour
	maxShareTTL     = 30 * 24 * time.Hour
	shareIssuer     = "solace"
)

// ShareClaims identify one history entry. The token carries no answers.
type ShareClaims struct {
	EntryID string `json:"eid"`
	jwt.RegisteredClaims
}

// SharedResult is what a share link reveals: the score, never the answers.
type SharedResult struct {
	Date      time.Time              `json:"date"`
	Score     assessment.SolaceScore `json:"score"`
	MoodLabel string                 `json:"mood_label,omitempty"`
	ExpiresAt time.Time              `json:"expires_at"`
}

// ShareService signs HS256 links for a single result, for example to show a
// clinician without exposing the rest of the history.
type ShareService struct {
	history *HistoryService
	secret  []byte
	now     func() time.Time
}

func NewShareService(history *HistoryService, secret string) (*ShareService, error) {
	if len(secret) < 16 {
		return nil, errors.New("share secret must be at least 16 bytes")
	}
	return &ShareService{history: history, secret: []byte(secret), now: time.Now}, nil
}

// Sign returns a token for entryID, which must belong to subjectID.
// ttl <= 0 means DefaultShareTTL; longer than 30 days is rejected.
func (s *ShareService) Sign(subjectID, entryID string, ttl time.Duration) (string, time.Time, error) {
	if ttl <= 0 {
		ttl = DefaultShareTTL
	}
	if ttl > maxShareTTL {
		return "", time.Time{}, NewInvalidError("share links expire after at most 30 days")
	}
	if _, err := s.history.Entry(subjectID, entryID); err != nil {
		return "", time.Time{}, err
	}
	now := s.now()
	exp := now.Add(ttl)
	claims := ShareClaims{
		EntryID: entryID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    shareIssuer,
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tok, exp, nil
}

// Resolve verifies token and returns the shared result.
func (s *ShareService) Resolve(token string) (*SharedResult, error) {
	claims := &ShareClaims{}
	t, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(shareIssuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !t.Valid {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, NewUnauthorizedError("share link expired")
		}
		return nil, NewUnauthorizedError("invalid share link")
	}
	e, err := s.history.Entry(claims.Subject, claims.EntryID)
	if err != nil {
		return nil, err
	}
	return &SharedResult{
		Date:      e.Date,
		Score:     e.Score,
		MoodLabel: e.MoodLabel,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
