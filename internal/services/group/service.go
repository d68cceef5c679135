package group

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"courier/internal/crypto"
	"courier/internal/domain"
)

const (
	groupKeyPrefix = "groupkey:"
	hiddenPrefix   = "grouphidden:"
)

var (
	// ErrGroupNotFound indicates the backing store has no such group.
	ErrGroupNotFound = errors.New("group not found")

	// ErrWrongPassword is the user-correctable rejection for a failed unlock.
	// It fires before any usable key is derived.
	ErrWrongPassword = errors.New("wrong group password")

	// ErrLocked indicates the group's key is not available locally yet.
	ErrLocked = errors.New("group is locked; unlock with the password or join from an invitation")
)

// Service manages group keys and membership. Access control beyond group
// creation is the backing store's concern, not enforced here.
type Service struct {
	groups domain.GroupStore
	kv     domain.LocalKV
	log    zerolog.Logger
}

func New(groups domain.GroupStore, kv domain.LocalKV, log zerolog.Logger) *Service {
	return &Service{groups: groups, kv: kv, log: log.With().Str("component", "group").Logger()}
}

// Create founds a group. With a password the symmetric key is derived from
// it and only (salt, verifier) are persisted; otherwise a fresh random key is
// generated and embedded in the returned invitation for out-of-band
// distribution. The unlocked key is kept in local storage either way.
func (s *Service) Create(ctx context.Context, creator domain.Address, members []domain.Address, name, emoji, password string) (domain.Group, domain.GroupInvitation, error) {
	rec := domain.GroupRecord{
		ID:        uuid.NewString(),
		Name:      name,
		Emoji:     emoji,
		CreatedBy: creator.Normalize().String(),
		CreatedAt: time.Now().UnixMilli(),
	}

	var key []byte
	if password != "" {
		salt, err := crypto.GenerateSalt()
		if err != nil {
			return domain.Group{}, domain.GroupInvitation{}, fmt.Errorf("generate salt: %w", err)
		}
		key = crypto.DerivePasswordKey(password, salt)
		rec.PasswordProtected = true
		rec.PasswordSalt = salt
		rec.PasswordHash = crypto.PasswordVerifier(password, salt)
	} else {
		var err error
		key, err = crypto.GenerateKey()
		if err != nil {
			return domain.Group{}, domain.GroupInvitation{}, fmt.Errorf("generate group key: %w", err)
		}
	}

	all := append([]domain.Address{creator}, members...)
	if err := s.groups.InsertGroup(ctx, rec, all); err != nil {
		return domain.Group{}, domain.GroupInvitation{}, err
	}
	if err := s.kv.Set(groupKeyPrefix+rec.ID, key); err != nil {
		return domain.Group{}, domain.GroupInvitation{}, fmt.Errorf("persist group key: %w", err)
	}

	inv := domain.GroupInvitation{
		GroupID:           rec.ID,
		Name:              name,
		Emoji:             emoji,
		PasswordProtected: rec.PasswordProtected,
	}
	if !rec.PasswordProtected {
		inv.Key = key
	}
	s.log.Info().Str("group", rec.ID).Bool("password", rec.PasswordProtected).Msg("created group")

	g, err := s.assemble(ctx, rec, key)
	return g, inv, err
}

// Unlock derives and locally stores a password group's key. The stored
// verifier is checked first: a wrong password is rejected cheaply and no
// wrong key is ever computed, so it cannot silently fail to decrypt
// everything later.
func (s *Service) Unlock(ctx context.Context, groupID, password string) (domain.Group, error) {
	rec, found, err := s.groups.Group(ctx, groupID)
	if err != nil {
		return domain.Group{}, err
	}
	if !found {
		return domain.Group{}, ErrGroupNotFound
	}
	if !rec.PasswordProtected {
		return s.Get(ctx, groupID)
	}
	if !crypto.VerifyPassword(password, rec.PasswordSalt, rec.PasswordHash) {
		return domain.Group{}, ErrWrongPassword
	}

	key := crypto.DerivePasswordKey(password, rec.PasswordSalt)
	if err := s.kv.Set(groupKeyPrefix+groupID, key); err != nil {
		return domain.Group{}, fmt.Errorf("persist unlocked key: %w", err)
	}
	return s.assemble(ctx, rec, key)
}

// Join installs an invitation's group key locally and adds self to the
// membership. Password-protected invitations carry no key; those still need
// Unlock.
func (s *Service) Join(ctx context.Context, self domain.Address, inv domain.GroupInvitation) (domain.Group, error) {
	rec, found, err := s.groups.Group(ctx, inv.GroupID)
	if err != nil {
		return domain.Group{}, err
	}
	if !found {
		return domain.Group{}, ErrGroupNotFound
	}
	if err := s.groups.AddGroupMembers(ctx, inv.GroupID, []domain.Address{self}); err != nil {
		return domain.Group{}, err
	}
	if len(inv.Key) == crypto.KeyBytes {
		if err := s.kv.Set(groupKeyPrefix+inv.GroupID, inv.Key); err != nil {
			return domain.Group{}, fmt.Errorf("persist invitation key: %w", err)
		}
		return s.assemble(ctx, rec, inv.Key)
	}
	return s.assemble(ctx, rec, nil)
}

// Get loads a group, attaching the symmetric key if it is unlocked locally.
func (s *Service) Get(ctx context.Context, groupID string) (domain.Group, error) {
	rec, found, err := s.groups.Group(ctx, groupID)
	if err != nil {
		return domain.Group{}, err
	}
	if !found {
		return domain.Group{}, ErrGroupNotFound
	}
	return s.assemble(ctx, rec, s.localKey(groupID))
}

// Key returns the locally unlocked symmetric key for groupID.
func (s *Service) Key(groupID string) ([]byte, error) {
	key := s.localKey(groupID)
	if key == nil {
		return nil, ErrLocked
	}
	return key, nil
}

// AddMembers adds members to the group's roster.
func (s *Service) AddMembers(ctx context.Context, groupID string, members []domain.Address) error {
	return s.groups.AddGroupMembers(ctx, groupID, members)
}

// RemoveMember takes a member off the roster.
//
// The group key is not rotated: a removed member who kept the key can still
// decrypt future messages until the members re-key explicitly. Accepted
// limitation; the right rotation policy is a product decision.
func (s *Service) RemoveMember(ctx context.Context, groupID string, member domain.Address) error {
	return s.groups.RemoveGroupMember(ctx, groupID, member)
}

// Leave hides the group locally, drops the local key, and best-effort removes
// self from the stored roster. Like RemoveMember it does not re-key.
func (s *Service) Leave(ctx context.Context, groupID string, self domain.Address) error {
	if err := s.kv.Set(hiddenPrefix+groupID, true); err != nil {
		return fmt.Errorf("hide group: %w", err)
	}
	if err := s.kv.Delete(groupKeyPrefix + groupID); err != nil {
		return fmt.Errorf("drop group key: %w", err)
	}
	if err := s.groups.RemoveGroupMember(ctx, groupID, self); err != nil {
		s.log.Warn().Err(err).Str("group", groupID).Msg("could not remove membership from the backing store")
	}
	return nil
}

// Hidden reports whether the group was left locally.
func (s *Service) Hidden(groupID string) bool {
	var hidden bool
	found, err := s.kv.Get(hiddenPrefix+groupID, &hidden)
	return err == nil && found && hidden
}

func (s *Service) localKey(groupID string) []byte {
	var key []byte
	found, err := s.kv.Get(groupKeyPrefix+groupID, &key)
	if err != nil || !found || len(key) != crypto.KeyBytes {
		return nil
	}
	return key
}

func (s *Service) assemble(ctx context.Context, rec domain.GroupRecord, key []byte) (domain.Group, error) {
	members, err := s.groups.GroupMembers(ctx, rec.ID)
	if err != nil {
		return domain.Group{}, err
	}
	return domain.Group{
		ID:                rec.ID,
		Name:              rec.Name,
		Emoji:             rec.Emoji,
		CreatedBy:         domain.Address(rec.CreatedBy),
		Members:           members,
		SymmetricKey:      key,
		PasswordProtected: rec.PasswordProtected,
		PasswordSalt:      rec.PasswordSalt,
		PasswordHash:      rec.PasswordHash,
		CreatedAt:         time.UnixMilli(rec.CreatedAt).UTC(),
	}, nil
}
