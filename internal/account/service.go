package account

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/fjod/techmart/internal/domain"
	"github.com/fjod/techmart/internal/storage"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	KeySession = "techmart_user"
	KeyUsers   = "techmart_users"

	DefaultAvatar    = "assets/images/users/default-avatar.png"
	minPasswordChars = 6
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type Options struct {
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
	Now        func() time.Time
}

// Service owns the session user and the registered-user list.
type Service struct {
	store  *storage.Store
	dir    Directory
	hashes *hashIndex
	now    func() time.Time
	log    *zap.Logger
}

func NewService(store *storage.Store, dir Directory, opts Options, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if dir == nil {
		dir = emptyDirectory{}
	}
	cost := opts.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		store:  store,
		dir:    dir,
		hashes: newHashIndex(cost),
		now:    now,
		log:    log.Named("account"),
	}
}

// Login checks the credentials against registered users first, then the directory.
func (s *Service) Login(ctx context.Context, email, password string) (domain.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return domain.User{}, ErrMissingCredentials
	}

	rec, ok := findByEmail(s.registered(ctx), email)
	if !ok {
		rec, ok = findByEmail(s.dir.Users(ctx), email)
	}
	if !ok {
		s.log.Info("login rejected: unknown email")
		return domain.User{}, ErrInvalidCredentials
	}

	hash, err := s.hashes.hashFor(rec)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash directory password: %w", err)
	}
	if hash == nil || bcrypt.CompareHashAndPassword(hash, []byte(password)) != nil {
		s.log.Info("login rejected: bad password", zap.String("user_id", rec.ID))
		return domain.User{}, ErrInvalidCredentials
	}

	session := rec.User
	session.Wishlist = slices.Clone(rec.Wishlist)
	session.LoginTime = s.now().UTC()
	if !s.store.Set(ctx, KeySession, session) {
		return domain.User{}, ErrStorage
	}
	s.log.Info("user logged in", zap.String("user_id", session.ID))
	return session, nil
}

func (s *Service) Logout(ctx context.Context) error {
	if !s.store.Remove(ctx, KeySession) {
		return ErrStorage
	}
	return nil
}

// CurrentUser returns the session user, if any.
func (s *Service) CurrentUser(ctx context.Context) (domain.User, bool) {
	var u domain.User
	if !s.store.Get(ctx, KeySession, &u) || u.ID == "" {
		return domain.User{}, false
	}
	return u, true
}

func (s *Service) IsAuthenticated(ctx context.Context) bool {
	_, ok := s.CurrentUser(ctx)
	return ok
}

type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone,omitempty"`
}

// Register creates a user, persists its bcrypt hash and starts a session.
func (s *Service) Register(ctx context.Context, r Registration) (domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(r.Email))
	name := strings.TrimSpace(r.Name)
	if email == "" || r.Password == "" || name == "" {
		return domain.User{}, ErrMissingFields
	}
	if !emailPattern.MatchString(email) {
		return domain.User{}, ErrInvalidEmail
	}
	if len(r.Password) < minPasswordChars {
		return domain.User{}, ErrWeakPassword
	}
	if _, taken := findByEmail(s.dir.Users(ctx), email); taken {
		return domain.User{}, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(r.Password), s.hashes.cost)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	user := domain.User{
		ID:        fmt.Sprintf("user-%d", now.UnixMilli()),
		Email:     email,
		Name:      name,
		Phone:     strings.TrimSpace(r.Phone),
		Role:      "user",
		Avatar:    DefaultAvatar,
		Wishlist:  []domain.ProductID{},
		CreatedAt: now,
	}

	err = storage.UpdateStrict(ctx, s.store, KeyUsers, func(cur []domain.UserRecord, _ bool) ([]domain.UserRecord, error) {
		if _, taken := findByEmail(cur, email); taken {
			return nil, ErrEmailTaken
		}
		return append(cur, domain.UserRecord{User: user, PasswordHash: string(hash)}), nil
	})
	if err != nil {
		if errors.Is(err, storage.ErrStorage) {
			s.log.Error("persist registered user failed", zap.Error(err))
			return domain.User{}, ErrStorage
		}
		return domain.User{}, err
	}

	session := user
	session.LoginTime = now
	if !s.store.Set(ctx, KeySession, session) {
		return domain.User{}, ErrStorage
	}
	s.log.Info("user registered", zap.String("user_id", user.ID))
	return session, nil
}

// UpdateProfile applies fn to a copy of the session user. The id, email and
// login time survive whatever fn does. Registered users also get the change
// persisted so it outlives the session.
func (s *Service) UpdateProfile(ctx context.Context, fn func(u *domain.User) error) (domain.User, error) {
	var updated domain.User
	err := storage.Update(ctx, s.store, KeySession, func(cur domain.User, found bool) (domain.User, error) {
		if !found || cur.ID == "" {
			return domain.User{}, ErrNotAuthenticated
		}
		next := cur
		next.Wishlist = slices.Clone(cur.Wishlist)
		if err := fn(&next); err != nil {
			return domain.User{}, err
		}
		next.ID, next.Email, next.LoginTime = cur.ID, cur.Email, cur.LoginTime
		updated = next
		return next, nil
	})
	if err != nil {
		if errors.Is(err, storage.ErrStorage) {
			return domain.User{}, ErrStorage
		}
		return domain.User{}, err
	}

	s.syncRegistered(ctx, updated)
	return updated, nil
}

// SaveBilling copies checkout billing details onto the profile.
func (s *Service) SaveBilling(ctx context.Context, b domain.BillingDetails) error {
	_, err := s.UpdateProfile(ctx, func(u *domain.User) error {
		u.FirstName, u.LastName = b.FirstName, b.LastName
		u.Phone, u.Company = b.Phone, b.Company
		u.Address, u.City, u.State = b.Address, b.City, b.State
		u.Zip, u.Country = b.Zip, b.Country
		return nil
	})
	return err
}

// EmailExists reports whether email belongs to a directory or registered user.
func (s *Service) EmailExists(ctx context.Context, email string) bool {
	if _, ok := findByEmail(s.registered(ctx), email); ok {
		return true
	}
	_, ok := findByEmail(s.dir.Users(ctx), email)
	return ok
}

func (s *Service) registered(ctx context.Context) []domain.UserRecord {
	var recs []domain.UserRecord
	s.store.Get(ctx, KeyUsers, &recs)
	return recs
}

func (s *Service) syncRegistered(ctx context.Context, u domain.User) {
	err := storage.UpdateStrict(ctx, s.store, KeyUsers, func(cur []domain.UserRecord, _ bool) ([]domain.UserRecord, error) {
		for i := range cur {
			if cur[i].ID == u.ID {
				profile := u
				profile.LoginTime = time.Time{}
				cur[i].User = profile
				return cur, nil
			}
		}
		return nil, errNotRegistered
	})
	if err != nil && !errors.Is(err, errNotRegistered) {
		s.log.Warn("persist profile failed", zap.String("user_id", u.ID), zap.Error(err))
	}
}

var errNotRegistered = errors.New("user is not registered locally")
