package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/partnerdesk/console/internal/core/domain"
	"github.com/partnerdesk/console/internal/core/ports"
	"github.com/partnerdesk/console/internal/infrastructure/token"
)

const usersTable = "auth_users"

type authUser struct {
	domain.Identity
	PasswordHash string
}

// UserStore reads and writes rows of auth_users. It is shared by every
// console's auth client.
type UserStore struct {
	db DB
}

func NewUserStore(db DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) Create(ctx context.Context, in domain.SignupInput) (*domain.Identity, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	id := domain.Identity{
		ID:        uuid.NewString(),
		Email:     normalizeEmail(in.Email),
		FirstName: in.FirstName,
		LastName:  in.LastName,
	}
	now := time.Now().UTC()

	query, args, err := psql.Insert(usersTable).
		Columns("id", "email", "password_hash", "first_name", "last_name", "created_at", "updated_at").
		Values(id.ID, id.Email, string(hash), id.FirstName, id.LastName, now, now).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build user insert: %w", err)
	}
	if _, err := s.db.Exec(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return &id, nil
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (*authUser, error) {
	return s.findOne(ctx, sq.Eq{"email": normalizeEmail(email)})
}

func (s *UserStore) FindByID(ctx context.Context, id string) (*authUser, error) {
	return s.findOne(ctx, sq.Eq{"id": id})
}

func (s *UserStore) findOne(ctx context.Context, where sq.Eq) (*authUser, error) {
	query, args, err := psql.Select("id::text", "email", "first_name", "last_name", "password_hash").
		From(usersTable).
		Where(where).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build user query: %w", err)
	}

	var u authUser
	err = s.db.QueryRow(ctx, query, args...).Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.PasswordHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &u, nil
}

// Update changes the email and/or password of id. Empty fields are kept.
func (s *UserStore) Update(ctx context.Context, id string, upd domain.UserUpdate) error {
	b := psql.Update(usersTable).Set("updated_at", time.Now().UTC()).Where(sq.Eq{"id": id})
	if upd.Email != "" {
		b = b.Set("email", normalizeEmail(upd.Email))
	}
	if upd.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(upd.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		b = b.Set("password_hash", string(hash))
	}

	query, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("build user update: %w", err)
	}
	tag, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrUserExists
		}
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// Delete removes the row of id.
func (s *UserStore) Delete(ctx context.Context, id string) error {
	query, args, err := psql.Delete(usersTable).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build user delete: %w", err)
	}
	tag, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// AuthClient is the hosted implementation of ports.AuthClient. It keeps one
// session and notifies its listeners after every transition.
type AuthClient struct {
	users  *UserStore
	tokens *token.Issuer

	mu        sync.Mutex
	session   *domain.Session
	listeners map[int]domain.AuthListener
	nextID    int
}

func NewAuthClient(users *UserStore, tokens *token.Issuer) *AuthClient {
	return &AuthClient{
		users:     users,
		tokens:    tokens,
		listeners: make(map[int]domain.AuthListener),
	}
}

var (
	_ ports.AuthClient      = (*AuthClient)(nil)
	_ ports.IdentityRemover = (*AuthClient)(nil)
)

// GetSession returns the stored session. An expired access token is
// refreshed transparently; a token that no longer verifies is dropped.
func (c *AuthClient) GetSession(ctx context.Context) (*domain.Session, error) {
	c.mu.Lock()
	s := c.session
	c.mu.Unlock()
	if s == nil {
		return nil, nil
	}

	_, err := c.tokens.Parse(s.AccessToken, token.KindAccess)
	switch {
	case err == nil:
		return copySession(s), nil
	case token.IsExpired(err) && s.RefreshToken != "":
		refreshed, rerr := c.RefreshSession(ctx)
		if rerr != nil {
			return nil, nil
		}
		return refreshed, nil
	case token.IsExpired(err):
		c.drop(s)
		return nil, nil
	default:
		c.drop(s)
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedSession, err)
	}
}

func (c *AuthClient) GetUser(ctx context.Context) (*domain.Identity, error) {
	s, err := c.GetSession(ctx)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, domain.ErrUnauthenticated
	}
	return s.User, nil
}

func (c *AuthClient) SignInWithPassword(ctx context.Context, email, password string) (*domain.Session, error) {
	u, err := c.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	s, err := c.issue(u.Identity)
	if err != nil {
		return nil, err
	}
	c.set(s, domain.AuthEventSignedIn)
	return copySession(s), nil
}

func (c *AuthClient) SignUp(ctx context.Context, in domain.SignupInput) (*domain.Identity, error) {
	return c.users.Create(ctx, in)
}

// DeleteIdentity removes an identity, e.g. one whose signup could not be
// completed.
func (c *AuthClient) DeleteIdentity(ctx context.Context, id string) error {
	return c.users.Delete(ctx, id)
}

// RestoreSession adopts a bearer access token. No refresh token is kept, so
// the session ends when the access token expires.
func (c *AuthClient) RestoreSession(ctx context.Context, accessToken string) (*domain.Session, error) {
	claims, err := c.tokens.Parse(accessToken, token.KindAccess)
	if err != nil {
		return nil, domain.ErrUnauthenticated
	}
	u, err := c.users.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUnauthenticated
		}
		return nil, err
	}

	identity := u.Identity
	s := &domain.Session{
		AccessToken: accessToken,
		ExpiresAt:   claims.ExpiresAt.Time.UTC(),
		User:        &identity,
	}

	c.mu.Lock()
	prev := c.session
	c.mu.Unlock()
	event := domain.AuthEventSignedIn
	if prev != nil && prev.User != nil && prev.User.ID == identity.ID {
		if prev.AccessToken == accessToken {
			return copySession(prev), nil
		}
		event = domain.AuthEventTokenRefreshed
	}
	c.set(s, event)
	return copySession(s), nil
}

func (c *AuthClient) RefreshSession(ctx context.Context) (*domain.Session, error) {
	c.mu.Lock()
	cur := c.session
	c.mu.Unlock()
	if cur == nil || cur.RefreshToken == "" {
		return nil, domain.ErrUnauthenticated
	}

	claims, err := c.tokens.Parse(cur.RefreshToken, token.KindRefresh)
	if err != nil {
		c.clear()
		return nil, domain.ErrUnauthenticated
	}
	u, err := c.users.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			c.clear()
			return nil, domain.ErrUnauthenticated
		}
		return nil, err
	}

	s, err := c.issue(u.Identity)
	if err != nil {
		return nil, err
	}
	c.set(s, domain.AuthEventTokenRefreshed)
	return copySession(s), nil
}

func (c *AuthClient) SignOut(ctx context.Context) error {
	c.clear()
	return nil
}

func (c *AuthClient) UpdateUser(ctx context.Context, upd domain.UserUpdate) (*domain.Identity, error) {
	c.mu.Lock()
	cur := c.session
	c.mu.Unlock()
	if cur == nil || cur.User == nil {
		return nil, domain.ErrUnauthenticated
	}

	if err := c.users.Update(ctx, cur.User.ID, upd); err != nil {
		return nil, err
	}
	u, err := c.users.FindByID(ctx, cur.User.ID)
	if err != nil {
		return nil, err
	}

	next := copySession(cur)
	identity := u.Identity
	next.User = &identity
	c.set(next, domain.AuthEventUserUpdated)
	return &identity, nil
}

func (c *AuthClient) OnAuthStateChange(fn domain.AuthListener) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.listeners, id)
			c.mu.Unlock()
		})
	}
}

func (c *AuthClient) issue(u domain.Identity) (*domain.Session, error) {
	pair, err := c.tokens.IssuePair(u.ID, u.Email)
	if err != nil {
		return nil, fmt.Errorf("issue tokens: %w", err)
	}
	return &domain.Session{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    pair.ExpiresAt.UTC(),
		User:         &u,
	}, nil
}

func (c *AuthClient) set(s *domain.Session, typ domain.AuthEventType) {
	c.mu.Lock()
	c.session = s
	c.mu.Unlock()
	c.emit(domain.AuthEvent{Type: typ, Session: copySession(s)})
}

func (c *AuthClient) clear() {
	c.mu.Lock()
	c.session = nil
	c.mu.Unlock()
	c.emit(domain.AuthEvent{Type: domain.AuthEventSignedOut})
}

// drop forgets s without notifying, unless another session replaced it.
func (c *AuthClient) drop(s *domain.Session) {
	c.mu.Lock()
	if c.session == s {
		c.session = nil
	}
	c.mu.Unlock()
}

// emit runs listeners outside the lock so they may call back into the client.
func (c *AuthClient) emit(ev domain.AuthEvent) {
	c.mu.Lock()
	fns := make([]domain.AuthListener, 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

func copySession(s *domain.Session) *domain.Session {
	if s == nil {
		return nil
	}
	cp := *s
	if s.User != nil {
		u := *s.User
		cp.User = &u
	}
	return &cp
}
