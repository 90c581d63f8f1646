// Package memory is an in-process directory.Directory used by tests, the
// load generator and single-node development runs.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/MrEthical07/authcore/directory"
	"github.com/google/uuid"
)

// Directory keeps users in maps guarded by a single mutex.
type Directory struct {
	mu         sync.RWMutex
	byID       map[string]directory.User
	byEmail    map[string]string
	byUsername map[string]string
	byPhone    map[string]string
	now        func() time.Time
}

var _ directory.Directory = (*Directory)(nil)

// New returns an empty Directory.
func New() *Directory {
	return &Directory{
		byID:       make(map[string]directory.User),
		byEmail:    make(map[string]string),
		byUsername: make(map[string]string),
		byPhone:    make(map[string]string),
		now:        time.Now,
	}
}

// Len returns the number of stored users.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.byID)
}

func (d *Directory) FindByEmail(ctx context.Context, email string) (directory.User, error) {
	return d.findIndexed(ctx, d.byEmail, strings.ToLower(email))
}

func (d *Directory) FindByUsername(ctx context.Context, username string) (directory.User, error) {
	return d.findIndexed(ctx, d.byUsername, username)
}

func (d *Directory) FindByPhone(ctx context.Context, phone string) (directory.User, error) {
	return d.findIndexed(ctx, d.byPhone, phone)
}

func (d *Directory) FindByID(ctx context.Context, id string) (directory.User, error) {
	if err := ctx.Err(); err != nil {
		return directory.User{}, err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()

	u, ok := d.byID[id]
	if !ok {
		return directory.User{}, directory.ErrNotFound
	}
	return u, nil
}

func (d *Directory) FindAny(ctx context.Context, l directory.Lookup) (directory.User, error) {
	if err := ctx.Err(); err != nil {
		return directory.User{}, err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()

	if id, ok := d.matchLocked(l); ok {
		return d.byID[id], nil
	}
	return directory.User{}, directory.ErrNotFound
}

func (d *Directory) Create(ctx context.Context, u directory.User) (directory.User, error) {
	if err := ctx.Err(); err != nil {
		return directory.User{}, err
	}
	u.Email = strings.ToLower(u.Email)

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, taken := d.matchLocked(directory.Lookup{Email: u.Email, Username: u.Username, Phone: u.Phone}); taken {
		return directory.User{}, directory.ErrDuplicate
	}

	now := d.now().UTC()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = directory.RoleClient
	}
	if u.AccountStatus == "" {
		u.AccountStatus = directory.StatusPending
	}
	u.TokenVersion = 0
	u.CreatedAt = now
	u.UpdatedAt = now

	d.byID[u.ID] = u
	d.byEmail[u.Email] = u.ID
	d.byUsername[u.Username] = u.ID
	if u.Phone != "" {
		d.byPhone[u.Phone] = u.ID
	}
	return u, nil
}

func (d *Directory) Update(ctx context.Context, id string, p directory.Patch) (directory.User, error) {
	if err := ctx.Err(); err != nil {
		return directory.User{}, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	u, ok := d.byID[id]
	if !ok {
		return directory.User{}, directory.ErrNotFound
	}
	if p.PasswordHash != nil {
		u.PasswordHash = *p.PasswordHash
	}
	if p.AccountStatus != nil {
		u.AccountStatus = *p.AccountStatus
	}
	if p.IsVerified != nil {
		u.IsVerified = *p.IsVerified
	}
	if p.LastLogin != nil {
		t := p.LastLogin.UTC()
		u.LastLogin = &t
	}
	u.UpdatedAt = d.now().UTC()
	d.byID[id] = u
	return u, nil
}

func (d *Directory) IncrementTokenVersion(ctx context.Context, id string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	u, ok := d.byID[id]
	if !ok {
		return 0, directory.ErrNotFound
	}
	u.TokenVersion++
	u.UpdatedAt = d.now().UTC()
	d.byID[id] = u
	return u.TokenVersion, nil
}

func (d *Directory) findIndexed(ctx context.Context, index map[string]string, key string) (directory.User, error) {
	if err := ctx.Err(); err != nil {
		return directory.User{}, err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()

	id, ok := index[key]
	if !ok || key == "" {
		return directory.User{}, directory.ErrNotFound
	}
	return d.byID[id], nil
}

func (d *Directory) matchLocked(l directory.Lookup) (string, bool) {
	if l.Email != "" {
		if id, ok := d.byEmail[strings.ToLower(l.Email)]; ok {
			return id, true
		}
	}
	if l.Username != "" {
		if id, ok := d.byUsername[l.Username]; ok {
			return id, true
		}
	}
	if l.Phone != "" {
		if id, ok := d.byPhone[l.Phone]; ok {
			return id, true
		}
	}
	return "", false
}
