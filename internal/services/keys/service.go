package keys

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"courier/internal/crypto"
	"courier/internal/domain"
)

const keypairPrefix = "keypair:"

var (
	// ErrNoBackup indicates the directory holds no encrypted backup for the
	// identity.
	ErrNoBackup = errors.New("no keypair backup in the directory")

	// ErrBadBackupSecret indicates the backup exists but did not decrypt
	// under the supplied secret. The backup stays unrecoverable without it.
	ErrBadBackupSecret = errors.New("backup secret does not open the stored keypair")
)

// Service derives conversation keys and manages the local messaging keypair.
type Service struct {
	kv  domain.LocalKV
	dir domain.KeyDirectory
	log zerolog.Logger
}

// New constructs the engine over local storage and the shared key directory.
func New(kv domain.LocalKV, dir domain.KeyDirectory, log zerolog.Logger) *Service {
	return &Service{kv: kv, dir: dir, log: log.With().Str("component", "keys").Logger()}
}

// GetOrCreateKeypair returns the messaging keypair for identity, generating
// and persisting one on first use. The private half stays in local storage.
func (s *Service) GetOrCreateKeypair(identity domain.Address) (domain.MessagingKeypair, error) {
	key := keypairPrefix + identity.Normalize().String()

	var kp domain.MessagingKeypair
	found, err := s.kv.Get(key, &kp)
	if err != nil {
		return domain.MessagingKeypair{}, fmt.Errorf("load keypair: %w", err)
	}
	if found {
		return kp, nil
	}

	priv, pub, err := crypto.GenerateX25519()
	if err != nil {
		return domain.MessagingKeypair{}, fmt.Errorf("generate keypair: %w", err)
	}
	kp = domain.MessagingKeypair{Public: pub, Private: priv}
	if err := s.kv.Set(key, kp); err != nil {
		return domain.MessagingKeypair{}, fmt.Errorf("persist keypair: %w", err)
	}
	s.log.Info().Str("identity", identity.Normalize().String()).
		Str("fingerprint", crypto.Fingerprint(pub.Slice())).
		Msg("generated messaging keypair")
	return kp, nil
}

// PublishKey registers the identity's public key in the shared directory,
// creating the keypair first if needed. Until both DM participants have
// published, their conversations stay on the legacy key.
func (s *Service) PublishKey(ctx context.Context, identity domain.Address) error {
	kp, err := s.GetOrCreateKeypair(identity)
	if err != nil {
		return err
	}
	return s.dir.UpsertPublicKey(ctx, identity, kp.Public.Slice())
}

// DeriveDmKey derives the conversation keys for a DM between self and peer.
//
// The legacy key is always computed. The ECDH key is used only when both
// sides have a well-formed public key in the directory; switching modes with
// only one side published would let the two ends derive different keys. Any
// failure on the secure path degrades to the legacy key; this method never
// returns an error, because key derivation must not block chat.
func (s *Service) DeriveDmKey(ctx context.Context, self, peer domain.Address) domain.DmKeyResult {
	legacy := crypto.LegacyDmKey(self, peer)
	result := domain.DmKeyResult{EncryptionKey: legacy, LegacyKey: legacy}

	peerPub, found, err := s.dir.PublicKey(ctx, peer)
	if err != nil || !found {
		s.logDegrade(peer, "peer key unavailable", err)
		return result
	}
	// Our own directory entry must exist too: the peer can only derive the
	// ECDH key if they can see our public key.
	_, selfPublished, err := s.dir.PublicKey(ctx, self)
	if err != nil || !selfPublished {
		s.logDegrade(self, "own key not published", err)
		return result
	}
	if len(peerPub) != 32 {
		s.logDegrade(peer, "malformed peer key", nil)
		return result
	}

	kp, err := s.GetOrCreateKeypair(self)
	if err != nil {
		s.logDegrade(self, "local keypair unavailable", err)
		return result
	}
	ecdh, err := crypto.SecureDmKey(kp.Private, domain.MustX25519Public(peerPub), self, peer)
	if err != nil {
		s.logDegrade(peer, "ecdh failed", err)
		return result
	}

	result.ECDHKey = ecdh
	result.EncryptionKey = ecdh
	result.IsSecure = true
	return result
}

// DerivePasswordKey derives a symmetric key from a password and salt.
func (s *Service) DerivePasswordKey(password string, salt []byte) []byte {
	return crypto.DerivePasswordKey(password, salt)
}

// BackupKeypair encrypts the private key under secret and uploads the pair to
// the directory for cross-device recovery. Losing the secret makes the
// backup permanently unrecoverable; that trade-off favors confidentiality.
func (s *Service) BackupKeypair(ctx context.Context, identity domain.Address, secret []byte) error {
	kp, err := s.GetOrCreateKeypair(identity)
	if err != nil {
		return err
	}
	bkey := backupKey(secret)
	defer crypto.Wipe(bkey)

	blob, err := crypto.Encrypt(kp.Private.Slice(), bkey)
	if err != nil {
		return fmt.Errorf("seal keypair backup: %w", err)
	}
	return s.dir.SaveKeyBackup(ctx, identity, kp.Public.Slice(), []byte(blob))
}

// RecoverKeypair fetches the encrypted backup, opens it with secret, and
// installs the keypair locally.
func (s *Service) RecoverKeypair(ctx context.Context, identity domain.Address, secret []byte) (domain.MessagingKeypair, error) {
	entry, found, err := s.dir.KeyBackup(ctx, identity)
	if err != nil {
		return domain.MessagingKeypair{}, err
	}
	if !found || len(entry.EncryptedPrivateKey) == 0 {
		return domain.MessagingKeypair{}, ErrNoBackup
	}

	bkey := backupKey(secret)
	defer crypto.Wipe(bkey)

	priv, ok := crypto.Decrypt(string(entry.EncryptedPrivateKey), bkey)
	if !ok || len(priv) != 32 || len(entry.PublicKey) != 32 {
		return domain.MessagingKeypair{}, ErrBadBackupSecret
	}
	kp := domain.MessagingKeypair{
		Public:  domain.MustX25519Public(entry.PublicKey),
		Private: domain.MustX25519Private(priv),
	}
	if err := s.kv.Set(keypairPrefix+identity.Normalize().String(), kp); err != nil {
		return domain.MessagingKeypair{}, fmt.Errorf("persist recovered keypair: %w", err)
	}
	return kp, nil
}

func (s *Service) logDegrade(who domain.Address, reason string, err error) {
	s.log.Debug().Err(err).Str("identity", who.Normalize().String()).Str("reason", reason).
		Msg("falling back to legacy DM key")
}

// backupKey stretches the caller-held secret to an AEAD key.
func backupKey(secret []byte) []byte {
	sum := sha256.Sum256(secret)
	return sum[:]
}
