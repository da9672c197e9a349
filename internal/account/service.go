package account

import (
	"context"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/victornm/quizkeep/internal/domain"
	"github.com/victornm/quizkeep/internal/errors"
	"github.com/victornm/quizkeep/internal/mirror"
	"github.com/victornm/quizkeep/internal/store"
)

const (
	keyAccounts = "accounts"
	keyCurrent  = "accounts:current"

	minNameLength     = 3
	minPasswordLength = 4

	DefaultAdminAlias       = "August_admin_001"
	DefaultLegacyAdminAlias = "august"
)

var (
	ErrNameTaken = errors.New(errors.CodeAlreadyExists,
		errors.WithReason(errors.ReasonNameTaken),
		errors.WithMessagef("name is already taken"),
	)
	ErrNameReserved = errors.New(errors.CodeAlreadyExists,
		errors.WithReason(errors.ReasonNameReserved),
		errors.WithMessagef("name is reserved"),
	)
	ErrInvalidCredentials = errors.New(errors.CodeUnauthenticated,
		errors.WithReason(errors.ReasonInvalidCredentials),
		errors.WithMessagef("invalid name or password"),
	)
	ErrNotFound = errors.New(errors.CodeNotFound, errors.WithMessagef("account not found"))
)

type Config struct {
	Store  *store.Store
	Mirror *mirror.Service
	Hasher Hasher

	// AdminAlias is the reserved administrator name. LegacyAdminAlias is the name an earlier
	// release used for the administrator; it is reserved too and migrated to AdminAlias.
	AdminAlias       string
	LegacyAdminAlias string
	// AdminSecretHash is the bcrypt digest of the administrator password. Empty disables the
	// administrator login path and the legacy migration.
	AdminSecretHash string

	Now   func() time.Time
	NewID func() (string, error)
	// Intn picks the registration avatar.
	Intn func(n int) int
}

// Service is the account directory. Accounts are kept as one list in the local store, in
// registration order.
type Service struct {
	st     *store.Store
	mirror *mirror.Service
	hasher Hasher

	adminAlias       string
	legacyAdminAlias string
	adminSecretHash  string

	now   func() time.Time
	newID func() (string, error)
	intn  func(n int) int

	mu sync.Mutex
}

func NewService(c Config) *Service {
	s := &Service{
		st:               c.Store,
		mirror:           c.Mirror,
		hasher:           c.Hasher,
		adminAlias:       c.AdminAlias,
		legacyAdminAlias: c.LegacyAdminAlias,
		adminSecretHash:  c.AdminSecretHash,
		now:              c.Now,
		newID:            c.NewID,
		intn:             c.Intn,
	}

	if s.hasher.cost == 0 {
		s.hasher = NewHasher(bcrypt.DefaultCost)
	}
	if s.adminAlias == "" {
		s.adminAlias = DefaultAdminAlias
	}
	if s.legacyAdminAlias == "" {
		s.legacyAdminAlias = DefaultLegacyAdminAlias
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = func() (string, error) {
			id, err := uuid.NewV7()
			return id.String(), err
		}
	}
	if s.intn == nil {
		s.intn = rand.Intn
	}

	return s
}

type RegisterRequest struct {
	Name     string
	Password string
}

// Register creates an account and makes it current. Names are unique case-insensitively and the
// administrator aliases cannot be registered.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*domain.Account, error) {
	name := strings.TrimSpace(req.Name)
	if utf8.RuneCountInString(name) < minNameLength {
		return nil, errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("name must have at least %d characters", minNameLength))
	}
	if utf8.RuneCountInString(req.Password) < minPasswordLength {
		return nil, errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("password must have at least %d characters", minPasswordLength))
	}
	if s.reserved(name) {
		return nil, ErrNameReserved
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	accounts, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if indexByName(accounts, name) >= 0 {
		return nil, ErrNameTaken
	}

	id, err := s.newID()
	if err != nil {
		return nil, errors.Internal(err)
	}
	digest, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, errors.Internal(err)
	}

	a := domain.Account{
		ID:             id,
		Name:           name,
		PasswordDigest: digest,
		Avatar:         Avatars[s.intn(RegistrationAvatars)],
		RegisteredAt:   s.now(),
	}

	accounts = append(accounts, a)
	if err := s.save(ctx, accounts); err != nil {
		return nil, err
	}
	if err := s.setCurrentID(ctx, a.ID); err != nil {
		return nil, err
	}

	s.mirror.PushAccount(ctx, a)
	s.mirror.LogAction(ctx, a.ID, domain.ActionRegistered, map[string]any{"name": a.Name})

	return &a, nil
}

type AuthenticateRequest struct {
	Name     string
	Password string
}

// Authenticate verifies credentials and makes the account current. The administrator alias with
// the administrator secret is accepted even when no such account exists yet: the legacy
// administrator account is promoted, or a fresh administrator account is created.
func (s *Service) Authenticate(ctx context.Context, req AuthenticateRequest) (*domain.Account, error) {
	name := strings.TrimSpace(req.Name)

	s.mu.Lock()
	defer s.mu.Unlock()

	accounts, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	var (
		idx     = -1
		changed bool
	)

	if i := indexByName(accounts, name); i >= 0 {
		ok, legacy := s.hasher.Verify(accounts[i].PasswordDigest, req.Password)
		if ok {
			idx = i
			if legacy {
				digest, err := s.hasher.Hash(req.Password)
				if err != nil {
					return nil, errors.Internal(err)
				}
				accounts[idx].PasswordDigest = digest
				changed = true
			}
		}
	}

	if idx < 0 && s.isAdminLogin(name, req.Password) {
		idx, changed, err = s.promoteAdmin(&accounts)
		if err != nil {
			return nil, err
		}
	}

	if idx < 0 {
		return nil, ErrInvalidCredentials
	}

	if changed {
		if err := s.save(ctx, accounts); err != nil {
			return nil, err
		}
	}

	a := accounts[idx]
	if err := s.setCurrentID(ctx, a.ID); err != nil {
		return nil, err
	}

	s.mirror.PushLoginEvent(ctx, a.ID, mirror.AccountPatch(a))
	s.mirror.LogAction(ctx, a.ID, domain.ActionLoggedIn, map[string]any{"name": a.Name})

	return &a, nil
}

func (s *Service) isAdminLogin(name, password string) bool {
	if s.adminSecretHash == "" || !strings.EqualFold(name, s.adminAlias) {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(s.adminSecretHash), []byte(password)) == nil
}

// promoteAdmin turns the administrator target into the administrator account, creating one when
// there is nothing to promote.
func (s *Service) promoteAdmin(accounts *[]domain.Account) (idx int, changed bool, err error) {
	if i := s.adminTarget(*accounts); i >= 0 {
		return i, s.makeAdmin(&(*accounts)[i]), nil
	}

	id, err := s.newID()
	if err != nil {
		return -1, false, errors.Internal(err)
	}

	*accounts = append(*accounts, domain.Account{
		ID:             id,
		Name:           s.adminAlias,
		PasswordDigest: s.adminSecretHash,
		Avatar:         Avatars[0],
		RegisteredAt:   s.now(),
		IsAdmin:        true,
	})

	return len(*accounts) - 1, true, nil
}

// adminTarget is the account holding the administrator alias, or else the first legacy
// administrator account.
func (s *Service) adminTarget(accounts []domain.Account) int {
	if i := indexByName(accounts, s.adminAlias); i >= 0 {
		return i
	}
	return indexByName(accounts, s.legacyAdminAlias)
}

func (s *Service) makeAdmin(a *domain.Account) bool {
	if a.Name == s.adminAlias && a.PasswordDigest == s.adminSecretHash && a.IsAdmin {
		return false
	}
	a.Name = s.adminAlias
	a.PasswordDigest = s.adminSecretHash
	a.IsAdmin = true
	return true
}

// MigrateLegacyAdmin rewrites the legacy administrator account to the administrator alias and
// secret. It is idempotent and never fails: problems are logged and the data left untouched.
func (s *Service) MigrateLegacyAdmin(ctx context.Context) bool {
	if s.adminSecretHash == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	accounts, err := s.load(ctx)
	if err != nil {
		slog.WarnContext(ctx, "account: legacy admin migration skipped", "error", err)
		return false
	}

	i := s.adminTarget(accounts)
	if i < 0 || !s.makeAdmin(&accounts[i]) {
		return false
	}

	if err := s.save(ctx, accounts); err != nil {
		slog.WarnContext(ctx, "account: legacy admin migration failed", "error", err)
		return false
	}

	slog.InfoContext(ctx, "account: legacy admin migrated", "account_id", accounts[i].ID)
	s.mirror.PushProfile(ctx, accounts[i].ID, map[string]any{"name": accounts[i].Name, "isAdmin": true})

	return true
}

type ProfileUpdate struct {
	Avatar *string
}

// UpdateProfile applies a partial update. It is fail-soft: unknown accounts, invalid values and
// storage failures are logged and ignored.
func (s *Service) UpdateProfile(ctx context.Context, id string, u ProfileUpdate) {
	if u.Avatar != nil && !validAvatar(*u.Avatar) {
		slog.WarnContext(ctx, "account: unknown avatar ignored", "account_id", id, "avatar", *u.Avatar)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	accounts, err := s.load(ctx)
	if err != nil {
		slog.WarnContext(ctx, "account: profile update skipped", "account_id", id, "error", err)
		return
	}

	i := indexByID(accounts, id)
	if i < 0 {
		slog.WarnContext(ctx, "account: profile update for unknown account", "account_id", id)
		return
	}

	patch := map[string]any{}
	if u.Avatar != nil {
		accounts[i].Avatar = *u.Avatar
		patch["avatar"] = *u.Avatar
	}
	if len(patch) == 0 {
		return
	}

	if err := s.save(ctx, accounts); err != nil {
		slog.WarnContext(ctx, "account: profile update failed", "account_id", id, "error", err)
		return
	}

	s.mirror.PushProfile(ctx, id, patch)
}

// ApplyResult folds a completed session into the account's aggregates.
func (s *Service) ApplyResult(ctx context.Context, id string, rec domain.SessionRecord) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	i := indexByID(accounts, id)
	if i < 0 {
		return nil, ErrNotFound
	}

	a := &accounts[i]
	a.GamesPlayed++
	a.TotalPoints += rec.PointsAwarded
	if rec.Grade > a.BestScore {
		a.BestScore = rec.Grade
	}

	if err := s.save(ctx, accounts); err != nil {
		return nil, err
	}

	s.mirror.PushProfile(ctx, a.ID, map[string]any{
		"gamesPlayed": a.GamesPlayed,
		"bestScore":   a.BestScore,
		"totalPoints": a.TotalPoints,
	})

	out := *a
	return &out, nil
}

// Current returns the authenticated account, or nil for a guest. Read failures are logged and
// treated as a guest; CurrentAccount tells them apart.
func (s *Service) Current(ctx context.Context) *domain.Account {
	a, err := s.CurrentAccount(ctx)
	if err != nil {
		slog.WarnContext(ctx, "account: current account unavailable", "error", err)
		return nil
	}
	return a
}

// CurrentAccount returns the authenticated account, or nil without an error for a guest.
func (s *Service) CurrentAccount(ctx context.Context) (*domain.Account, error) {
	var id string
	if _, err := s.st.Get(ctx, keyCurrent, &id); err != nil {
		return nil, errors.Storage(err)
	}
	if id == "" {
		return nil, nil
	}

	accounts, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	i := indexByID(accounts, id)
	if i < 0 {
		return nil, nil
	}

	a := accounts[i]
	return &a, nil
}

// SetCurrent replaces the current-account pointer. A nil account clears it.
func (s *Service) SetCurrent(ctx context.Context, a *domain.Account) error {
	if a == nil {
		if err := s.st.Remove(ctx, keyCurrent); err != nil {
			return errors.Storage(err)
		}
		return nil
	}

	return s.setCurrentID(ctx, a.ID)
}

// Logout clears the current-account pointer. It never fails.
func (s *Service) Logout(ctx context.Context, id string) {
	if err := s.st.Remove(ctx, keyCurrent); err != nil {
		slog.WarnContext(ctx, "account: clear current account failed", "account_id", id, "error", err)
	}

	s.mirror.PushLogoutEvent(ctx, id)
	s.mirror.LogAction(ctx, id, domain.ActionLoggedOut, nil)
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Account, error) {
	accounts, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	i := indexByID(accounts, id)
	if i < 0 {
		return nil, ErrNotFound
	}

	a := accounts[i]
	return &a, nil
}

// List returns every account in registration order.
func (s *Service) List(ctx context.Context) ([]domain.Account, error) {
	return s.load(ctx)
}

func (s *Service) reserved(name string) bool {
	return strings.EqualFold(name, s.adminAlias) || strings.EqualFold(name, s.legacyAdminAlias)
}

func (s *Service) load(ctx context.Context) ([]domain.Account, error) {
	var accounts []domain.Account
	if _, err := s.st.Get(ctx, keyAccounts, &accounts); err != nil {
		return nil, errors.Storage(err)
	}
	return accounts, nil
}

func (s *Service) save(ctx context.Context, accounts []domain.Account) error {
	if err := s.st.Set(ctx, keyAccounts, accounts); err != nil {
		return errors.Storage(err)
	}
	return nil
}

func (s *Service) setCurrentID(ctx context.Context, id string) error {
	if err := s.st.Set(ctx, keyCurrent, id); err != nil {
		return errors.Storage(err)
	}
	return nil
}

func indexByName(accounts []domain.Account, name string) int {
	for i := range accounts {
		if strings.EqualFold(accounts[i].Name, name) {
			return i
		}
	}
	return -1
}

func indexByID(accounts []domain.Account, id string) int {
	for i := range accounts {
		if accounts[i].ID == id {
			return i
		}
	}
	return -1
}
