package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"

	"pumarket/internal/domain"
	applog "pumarket/internal/log"
	"pumarket/internal/repos"
	"pumarket/internal/validate"
)

const magicLinkPurpose = "magic_link"

// LinkSender delivers a sign-in link to an email address.
type LinkSender interface {
	SendMagicLink(ctx context.Context, email, link string) error
}

// LogSender writes magic links to the application log instead of mailing them.
type LogSender struct{}

func (LogSender) SendMagicLink(_ context.Context, email, link string) error {
	applog.Logger().Info().Str("action", "auth.magic_link.sent").Str("email", email).Str("link", link).Send()
	return nil
}

type magicClaims struct {
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

type AuthService struct {
	Users   *repos.UserRepo
	Events  *EventBus
	Sender  LinkSender
	BaseURL string
	Secret  []byte
	TTL     time.Duration

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func NewAuthService(users *repos.UserRepo, events *EventBus, sender LinkSender, baseURL, secret string, ttl time.Duration) *AuthService {
	if sender == nil {
		sender = LogSender{}
	}
	return &AuthService{
		Users:   users,
		Events:  events,
		Sender:  sender,
		BaseURL: strings.TrimRight(baseURL, "/"),
		Secret:  []byte(secret),
		TTL:     ttl,
	}
}

// Subscribe registers an observer for sign-in, sign-out and role events.
func (s *AuthService) Subscribe(fn Observer) (unsubscribe func()) {
	if s.Events == nil {
		s.Events = NewEventBus()
	}
	return s.Events.Subscribe(fn)
}

func (s *AuthService) SignUp(ctx context.Context, sid, email, password, fullName string) (*domain.User, error) {
	email, ok := validate.Email(email)
	if !ok {
		return nil, fmt.Errorf("%w: enter a valid email", ErrInvalid)
	}
	if !validate.Password(password) {
		return nil, fmt.Errorf("%w: password needs 8-64 characters with upper, lower, digit and symbol", ErrInvalid)
	}
	name, ok := validate.Name(fullName)
	if !ok {
		return nil, fmt.Errorf("%w: name is too long", ErrInvalid)
	}
	if _, err := s.Users.ByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &domain.User{ID: uuid.NewString(), Email: email, FullName: name, Hash: string(hash)}
	if err := s.Users.Create(ctx, u, domain.RolePublic); err != nil {
		return nil, err
	}
	if err := s.Users.BindSession(ctx, sid, u.ID); err != nil {
		return nil, err
	}
	s.Events.Publish(SessionEvent{Kind: EventSignUp, UserID: u.ID, SessionID: sid})
	return u, nil
}

func (s *AuthService) Login(ctx context.Context, sid, email, password string) (*domain.User, error) {
	u, err := s.Users.ByEmail(ctx, email)
	if err != nil {
		return nil, ErrBadCreds
	}
	// Magic-link-only accounts have no password hash.
	if u.Hash == "" || bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)) != nil {
		return nil, ErrBadCreds
	}
	if err := s.Users.BindSession(ctx, sid, u.ID); err != nil {
		return nil, err
	}
	s.Events.Publish(SessionEvent{Kind: EventSignIn, UserID: u.ID, SessionID: sid})
	return u, nil
}

func (s *AuthService) limiter(email string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.limiters == nil {
		s.limiters = make(map[string]*rate.Limiter)
	}
	key := strings.ToLower(email)
	l, ok := s.limiters[key]
	if !ok {
		l = rate.NewLimiter(rate.Every(time.Minute), 3)
		s.limiters[key] = l
	}
	return l
}

// RequestMagicLink sends a single-use sign-in link. Unknown addresses get
// the same nil result so the endpoint does not reveal which emails exist.
func (s *AuthService) RequestMagicLink(ctx context.Context, email string) error {
	email, ok := validate.Email(email)
	if !ok {
		return fmt.Errorf("%w: enter a valid email", ErrInvalid)
	}
	if !s.limiter(email).Allow() {
		return ErrThrottled
	}
	u, err := s.Users.ByEmail(ctx, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}

	tok, err := s.issueMagicToken(u.ID, time.Now())
	if err != nil {
		return err
	}
	link := s.BaseURL + "/auth/magic?token=" + url.QueryEscape(tok)
	return s.Sender.SendMagicLink(ctx, u.Email, link)
}

func (s *AuthService) issueMagicToken(userID string, now time.Time) (string, error) {
	ttl := s.TTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	claims := magicClaims{
		Purpose: magicLinkPurpose,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.Secret)
}

// VerifyMagicLink checks a token from a sign-in link, burns it and binds sid
// to its user.
func (s *AuthService) VerifyMagicLink(ctx context.Context, sid, token string) (*domain.User, error) {
	claims := &magicClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return s.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid || claims.Purpose != magicLinkPurpose || claims.Subject == "" || claims.ID == "" {
		return nil, ErrBadToken
	}

	u, err := s.Users.ByID(ctx, claims.Subject)
	if err != nil {
		return nil, ErrBadToken
	}
	if err := s.Users.ConsumeMagicLink(ctx, claims.ID, u.ID); err != nil {
		if errors.Is(err, repos.ErrAlreadyUsed) {
			return nil, ErrBadToken
		}
		return nil, err
	}
	if err := s.Users.BindSession(ctx, sid, u.ID); err != nil {
		return nil, err
	}
	s.Events.Publish(SessionEvent{Kind: EventSignIn, UserID: u.ID, SessionID: sid})
	return u, nil
}

func (s *AuthService) Logout(ctx context.Context, sid string) error {
	u, _ := s.Users.SessionUser(ctx, sid)
	if err := s.Users.UnbindSession(ctx, sid); err != nil {
		return err
	}
	if u != nil {
		s.Events.Publish(SessionEvent{Kind: EventSignOut, UserID: u.ID, SessionID: sid})
	}
	return nil
}

// CurrentUser returns the user bound to sid with the roles held right now.
func (s *AuthService) CurrentUser(ctx context.Context, sid string) (*domain.User, error) {
	u, err := s.Users.SessionUser(ctx, sid)
	if err != nil {
		return nil, err
	}
	roles, err := s.Users.Roles(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	u.Roles = roles
	return u, nil
}
