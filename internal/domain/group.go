package domain

import "time"

// Group is a multi-party conversation. SymmetricKey is nil until the group is
// unlocked (password groups) or created/joined locally (open groups); the raw
// key is never written to the durable backing store.
type Group struct {
	ID                string
	Name              string
	Emoji             string
	CreatedBy         Address
	Members           []Address
	SymmetricKey      []byte
	PasswordProtected bool
	PasswordSalt      []byte
	PasswordHash      []byte
	CreatedAt         time.Time
}

// GroupInvitation is the out-of-band payload a founder hands to invitees. For
// open groups it embeds the symmetric key; for password groups invitees must
// unlock with the password instead.
type GroupInvitation struct {
	GroupID           string `json:"group_id"`
	Name              string `json:"name"`
	Emoji             string `json:"emoji,omitempty"`
	Key               []byte `json:"key,omitempty"`
	PasswordProtected bool   `json:"password_protected"`
}
