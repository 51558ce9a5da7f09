package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"stocksim/internal/model"
	"stocksim/internal/store"
)

// ErrInvalidCredentials is returned for both an unknown username and a
// wrong password, so a caller cannot tell which one was the case.
var ErrInvalidCredentials = errors.New("invalid username or password")

var (
	ErrMissingUsername     = errors.New("must provide username")
	ErrMissingPassword     = errors.New("must provide password")
	ErrMissingConfirmation = errors.New("must confirm password")
	ErrPasswordMismatch    = errors.New("passwords do not match")
)

type Service struct {
	store        store.Store
	issuer       string
	secret       []byte
	ttl          time.Duration
	startingCash decimal.Decimal
}

func NewService(st store.Store, issuer string, secret []byte, ttl time.Duration, startingCash decimal.Decimal) *Service {
	return &Service{store: st, issuer: issuer, secret: secret, ttl: ttl, startingCash: startingCash}
}

func (s *Service) Register(ctx context.Context, username, password, confirmation string) (model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return model.User{}, ErrMissingUsername
	}
	if password == "" {
		return model.User{}, ErrMissingPassword
	}
	if confirmation == "" {
		return model.User{}, ErrMissingConfirmation
	}
	if confirmation != password {
		return model.User{}, ErrPasswordMismatch
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return model.User{}, err
	}
	return s.store.CreateUser(ctx, username, string(hash), s.startingCash)
}

// Login verifies the credentials, records a server-side session and
// returns a signed token carrying the session ID.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	u, err := s.store.UserByName(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}
	now := time.Now().UTC()
	session := model.Session{ID: uuid.NewString(), UserID: u.ID, ExpiresAt: now.Add(s.ttl)}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return "", err
	}
	return s.signToken(u.ID, session.ID, now)
}

// Logout drops the session unconditionally. Deleting an already gone
// session is not an error.
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	return s.store.DeleteSession(ctx, sessionID)
}

func (s *Service) GetUser(ctx context.Context, userID string) (model.User, error) {
	return s.store.UserByID(ctx, userID)
}

func (s *Service) signToken(userID, sessionID string, now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Issuer:    s.issuer,
		Subject:   userID,
		ID:        sessionID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.secret)
}

// Authenticate parses the token and checks that its session is still
// live, so a logged-out token stops working before it expires.
func (s *Service) Authenticate(ctx context.Context, token string) (userID, sessionID string, err error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return s.secret, nil
	})
	if err != nil {
		return "", "", err
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || !parsed.Valid {
		return "", "", errors.New("invalid token")
	}
	if claims.Issuer != s.issuer {
		return "", "", errors.New("invalid issuer")
	}
	if claims.Subject == "" || claims.ID == "" {
		return "", "", errors.New("invalid claims")
	}
	live, err := s.store.SessionExists(ctx, claims.ID)
	if err != nil {
		return "", "", err
	}
	if !live {
		return "", "", errors.New("session expired")
	}
	return claims.Subject, claims.ID, nil
}
