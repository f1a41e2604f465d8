// Package memory provides in-process implementations of the repository
// interfaces. They back unit tests and local runs without Postgres or Redis.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/blog-service/internal/domain"
	"github.com/spec-kit/blog-service/internal/repository"
)

// Store holds users, roles, permissions and live tokens in memory.
type Store struct {
	mu          sync.RWMutex
	users       map[string]*domain.User
	roles       map[string]*domain.Role
	permissions map[string]*domain.Permission
	grants      map[string]map[string]struct{} // role id -> permission ids
	tokens      map[string]tokenEntry          // liveness key -> entry
	userTokens  map[string]map[string]struct{} // owner id -> token ids

	now func() time.Time

	// Err* make the matching repository fail, simulating an outage.
	ErrUsers  error
	ErrRoles  error
	ErrTokens error
}

type tokenEntry struct {
	owner     string
	expiresAt time.Time
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		users:       make(map[string]*domain.User),
		roles:       make(map[string]*domain.Role),
		permissions: make(map[string]*domain.Permission),
		grants:      make(map[string]map[string]struct{}),
		tokens:      make(map[string]tokenEntry),
		userTokens:  make(map[string]map[string]struct{}),
		now:         time.Now,
	}
}

// WithClock replaces the time source used for token expiry.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// Users returns the store as a UserRepository.
func (s *Store) Users() repository.UserRepository { return userRepo{s} }

// Roles returns the store as a RoleRepository.
func (s *Store) Roles() repository.RoleRepository { return roleRepo{s} }

// Tokens returns the store as a TokenRepository.
func (s *Store) Tokens() repository.TokenRepository { return tokenRepo{s} }

// SeedRole inserts a role granting the named permissions, creating missing permissions.
func (s *Store) SeedRole(name, slug string, permissionNames ...string) *domain.Role {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	role := &domain.Role{ID: uuid.NewString(), Name: name, Slug: slug, CreatedAt: now, UpdatedAt: now}
	s.roles[role.ID] = role
	s.grants[role.ID] = make(map[string]struct{})
	for _, name := range permissionNames {
		p := s.permissionByNameLocked(name)
		if p == nil {
			resource, action, _ := strings.Cut(name, ":")
			p = &domain.Permission{ID: uuid.NewString(), Name: name, Resource: resource, Action: action, CreatedAt: now}
			s.permissions[p.ID] = p
		}
		s.grants[role.ID][p.ID] = struct{}{}
	}
	copied := *role
	return &copied
}

// SeedUser inserts a user with an already hashed password.
func (s *Store) SeedUser(email, name, passwordHash, roleID string) *domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	user := &domain.User{ID: uuid.NewString(), Email: email, Name: name, PasswordHash: passwordHash, RoleID: roleID, CreatedAt: now, UpdatedAt: now}
	s.users[user.ID] = user
	copied := *user
	return &copied
}

// SetUserRole moves a user to another role.
func (s *Store) SetUserRole(userID, roleID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[userID]; ok {
		u.RoleID = roleID
	}
}

// RemoveToken drops a single liveness entry, as natural expiry would.
func (s *Store) RemoveToken(tokenID string, kind domain.TokenKind) {
	key, err := repository.TokenKey(tokenID, kind)
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, key)
}

// LiveTokenCount returns the number of unexpired liveness entries for owner.
func (s *Store) LiveTokenCount(ownerID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	now := s.now()
	n := 0
	for _, entry := range s.tokens {
		if entry.owner == ownerID && now.Before(entry.expiresAt) {
			n++
		}
	}
	return n
}

func (s *Store) permissionByNameLocked(name string) *domain.Permission {
	for _, p := range s.permissions {
		if p.Name == name {
			return p
		}
	}
	return nil
}

func (s *Store) userWithRoleLocked(u *domain.User) (*domain.UserWithRole, error) {
	if u == nil || u.DeletedAt != nil {
		return nil, pgx.ErrNoRows
	}
	role, ok := s.roles[u.RoleID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &domain.UserWithRole{User: *u, RoleSlug: role.Slug, RoleName: role.Name}, nil
}

type userRepo struct{ s *Store }

func (r userRepo) Create(_ context.Context, user *domain.User) error {
	if r.s.ErrUsers != nil {
		return r.s.ErrUsers
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.DeletedAt == nil && u.Email == user.Email {
			return &pgconn.PgError{Code: "23505", ConstraintName: "users_email_active_key"}
		}
	}
	now := r.s.now()
	user.ID = uuid.NewString()
	user.CreatedAt, user.UpdatedAt = now, now
	copied := *user
	r.s.users[user.ID] = &copied
	return nil
}

func (r userRepo) GetByEmailWithRole(_ context.Context, email string) (*domain.UserWithRole, error) {
	if r.s.ErrUsers != nil {
		return nil, r.s.ErrUsers
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if u.Email == email && u.DeletedAt == nil {
			return r.s.userWithRoleLocked(u)
		}
	}
	return nil, pgx.ErrNoRows
}

func (r userRepo) GetByIDWithRole(_ context.Context, id string) (*domain.UserWithRole, error) {
	if r.s.ErrUsers != nil {
		return nil, r.s.ErrUsers
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.userWithRoleLocked(r.s.users[id])
}

func (r userRepo) List(_ context.Context) ([]domain.UserWithRole, error) {
	if r.s.ErrUsers != nil {
		return nil, r.s.ErrUsers
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]domain.UserWithRole, 0, len(r.s.users))
	for _, u := range r.s.users {
		if uw, err := r.s.userWithRoleLocked(u); err == nil {
			out = append(out, *uw)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (r userRepo) UpdatePassword(_ context.Context, id, passwordHash string) error {
	if r.s.ErrUsers != nil {
		return r.s.ErrUsers
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok || u.DeletedAt != nil {
		return pgx.ErrNoRows
	}
	u.PasswordHash = passwordHash
	u.UpdatedAt = r.s.now()
	return nil
}

func (r userRepo) Delete(_ context.Context, id string) error {
	if r.s.ErrUsers != nil {
		return r.s.ErrUsers
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok || u.DeletedAt != nil {
		return pgx.ErrNoRows
	}
	now := r.s.now()
	u.DeletedAt = &now
	return nil
}

type roleRepo struct{ s *Store }

func (r roleRepo) Create(_ context.Context, role *domain.Role) error {
	if r.s.ErrRoles != nil {
		return r.s.ErrRoles
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := r.s.now()
	role.ID = uuid.NewString()
	role.CreatedAt, role.UpdatedAt = now, now
	copied := *role
	r.s.roles[role.ID] = &copied
	r.s.grants[role.ID] = make(map[string]struct{})
	return nil
}

func (r roleRepo) GetByID(_ context.Context, id string) (*domain.Role, error) {
	if r.s.ErrRoles != nil {
		return nil, r.s.ErrRoles
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	role, ok := r.s.roles[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *role
	return &copied, nil
}

func (r roleRepo) GetBySlug(_ context.Context, slug string) (*domain.Role, error) {
	if r.s.ErrRoles != nil {
		return nil, r.s.ErrRoles
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, role := range r.s.roles {
		if role.Slug == slug {
			copied := *role
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r roleRepo) List(_ context.Context) ([]domain.Role, error) {
	if r.s.ErrRoles != nil {
		return nil, r.s.ErrRoles
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]domain.Role, 0, len(r.s.roles))
	for _, role := range r.s.roles {
		out = append(out, *role)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r roleRepo) Update(_ context.Context, role *domain.Role) error {
	if r.s.ErrRoles != nil {
		return r.s.ErrRoles
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.roles[role.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	role.CreatedAt = existing.CreatedAt
	role.UpdatedAt = r.s.now()
	copied := *role
	r.s.roles[role.ID] = &copied
	return nil
}

func (r roleRepo) Delete(_ context.Context, id string) error {
	if r.s.ErrRoles != nil {
		return r.s.ErrRoles
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.roles[id]; !ok {
		return pgx.ErrNoRows
	}
	for _, u := range r.s.users {
		if u.RoleID == id && u.DeletedAt == nil {
			return repository.ErrRoleInUse
		}
	}
	delete(r.s.roles, id)
	delete(r.s.grants, id)
	return nil
}

func (r roleRepo) GetPermissions(_ context.Context, roleID string) ([]string, error) {
	if r.s.ErrRoles != nil {
		return nil, r.s.ErrRoles
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	names := make([]string, 0, len(r.s.grants[roleID]))
	for id := range r.s.grants[roleID] {
		if p, ok := r.s.permissions[id]; ok {
			names = append(names, p.Name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (r roleRepo) ListPermissions(_ context.Context) ([]domain.Permission, error) {
	if r.s.ErrRoles != nil {
		return nil, r.s.ErrRoles
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]domain.Permission, 0, len(r.s.permissions))
	for _, p := range r.s.permissions {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r roleRepo) AssignPermission(_ context.Context, roleID, permissionID string) (bool, error) {
	if r.s.ErrRoles != nil {
		return false, r.s.ErrRoles
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	grants, ok := r.s.grants[roleID]
	if !ok {
		return false, pgx.ErrNoRows
	}
	if _, ok := r.s.permissions[permissionID]; !ok {
		return false, pgx.ErrNoRows
	}
	if _, exists := grants[permissionID]; exists {
		return false, nil
	}
	grants[permissionID] = struct{}{}
	return true, nil
}

func (r roleRepo) RemovePermission(_ context.Context, roleID, permissionID string) (bool, error) {
	if r.s.ErrRoles != nil {
		return false, r.s.ErrRoles
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	grants := r.s.grants[roleID]
	if _, exists := grants[permissionID]; !exists {
		return false, nil
	}
	delete(grants, permissionID)
	return true, nil
}

type tokenRepo struct{ s *Store }

func (r tokenRepo) Record(_ context.Context, tokenID, ownerID string, kind domain.TokenKind, ttl time.Duration) error {
	if r.s.ErrTokens != nil {
		return r.s.ErrTokens
	}
	key, err := repository.TokenKey(tokenID, kind)
	if err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.tokens[key] = tokenEntry{owner: ownerID, expiresAt: r.s.now().Add(ttl)}
	if r.s.userTokens[ownerID] == nil {
		r.s.userTokens[ownerID] = make(map[string]struct{})
	}
	r.s.userTokens[ownerID][tokenID] = struct{}{}
	return nil
}

func (r tokenRepo) IsLive(_ context.Context, tokenID string, kind domain.TokenKind) (bool, error) {
	if r.s.ErrTokens != nil {
		return false, r.s.ErrTokens
	}
	key, err := repository.TokenKey(tokenID, kind)
	if err != nil {
		return false, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	entry, ok := r.s.tokens[key]
	return ok && r.s.now().Before(entry.expiresAt), nil
}

func (r tokenRepo) RevokeAll(_ context.Context, ownerID string) (int, error) {
	if r.s.ErrTokens != nil {
		return 0, r.s.ErrTokens
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ids := r.s.userTokens[ownerID]
	for id := range ids {
		for _, kind := range []domain.TokenKind{domain.TokenKindAccess, domain.TokenKindRefresh} {
			key, _ := repository.TokenKey(id, kind)
			delete(r.s.tokens, key)
		}
	}
	delete(r.s.userTokens, ownerID)
	return len(ids), nil
}
