package account

import (
	"context"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"github.com/DriveDocs-Network/data_layer/notify"
)

// State caches the authenticated user's profile. Mutating operations update
// the cached fields in place only after the API confirms the change.
type State struct {
	mu      sync.RWMutex
	svc     *Service
	toasts  *notify.Queue
	log     zerolog.Logger
	account *Account
	pending bool
}

// NewState creates an account state container.
func NewState(svc *Service, toasts *notify.Queue, log zerolog.Logger) *State {
	return &State{svc: svc, toasts: toasts, log: log}
}

// Account returns a copy of the cached profile, or nil when not fetched.
func (st *State) Account() *Account {
	st.mu.RLock()
	defer st.mu.RUnlock()
	if st.account == nil {
		return nil
	}
	out := *st.account
	return &out
}

// Pending reports whether a fetch is in flight.
func (st *State) Pending() bool {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.pending
}

// Fetch loads the profile into the cache.
func (st *State) Fetch(ctx context.Context) (*Account, error) {
	st.mu.Lock()
	st.pending = true
	st.mu.Unlock()

	acc, err := st.svc.Fetch(ctx)

	st.mu.Lock()
	st.pending = false
	if err == nil {
		st.account = acc
	}
	st.mu.Unlock()

	if err != nil {
		return nil, err
	}
	out := *acc
	return &out, nil
}

// ChangeAvatar uploads a new avatar and updates the cached profile on
// confirmation.
func (st *State) ChangeAvatar(ctx context.Context, filename string, file io.Reader) (*AvatarResult, error) {
	res, err := st.svc.ChangeAvatar(ctx, filename, file)
	if err != nil {
		st.toasts.Error("Avatar", "Could not change avatar")
		return nil, err
	}

	st.mu.Lock()
	if st.account != nil {
		avatar := res.Avatar
		st.account.Avatar = &avatar
	}
	st.mu.Unlock()
	return res, nil
}

// RemoveAvatar deletes the avatar and clears the cached field on
// confirmation.
func (st *State) RemoveAvatar(ctx context.Context) (*AvatarResult, error) {
	res, err := st.svc.RemoveAvatar(ctx)
	if err != nil {
		st.toasts.Error("Avatar", "Could not remove avatar")
		return nil, err
	}

	st.mu.Lock()
	if st.account != nil {
		st.account.Avatar = nil
	}
	st.mu.Unlock()
	return res, nil
}

// UpdateName changes the display name and mirrors the confirmed value into
// the cache.
func (st *State) UpdateName(ctx context.Context, name string) (*Account, error) {
	acc, err := st.svc.UpdateName(ctx, name)
	if err != nil {
		st.toasts.Error("Profile", "Could not update name")
		return nil, err
	}

	st.mu.Lock()
	if st.account != nil {
		st.account.Name = acc.Name
	}
	st.mu.Unlock()
	return acc, nil
}

// ChangePassword changes the password and records the confirmed change
// timestamp.
func (st *State) ChangePassword(ctx context.Context, change PasswordChange) (*Account, error) {
	acc, err := st.svc.ChangePassword(ctx, change)
	if err != nil {
		st.toasts.Error("Password", "Could not change password")
		return nil, err
	}

	st.mu.Lock()
	if st.account != nil {
		st.account.LastPasswordChange = acc.LastPasswordChange
	}
	st.mu.Unlock()
	return acc, nil
}

// Delete permanently removes the account. The cache is reset on success;
// session teardown is the auth service's job.
func (st *State) Delete(ctx context.Context) error {
	if err := st.svc.Delete(ctx); err != nil {
		st.toasts.Error("Account", "Could not delete account")
		return err
	}
	st.Reset()
	return nil
}

// Reset clears the cached profile and pending flag.
func (st *State) Reset() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.account = nil
	st.pending = false
}
