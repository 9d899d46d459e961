package auth

import (
	"time"

	"github.com/spec-kit/storefront-auth/internal/domain"
)

// ResetTokenManager issues and validates single-purpose password-reset
// tokens. It signs with its own secret, separate from session signing, so
// compromise of one class never compromises the other.
type ResetTokenManager struct {
	codec  *Codec
	secret []byte
	ttl    time.Duration
}

// NewResetTokenManager builds the manager. The secret is mandatory.
func NewResetTokenManager(secret string, ttl time.Duration) (*ResetTokenManager, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &ResetTokenManager{codec: NewCodec(), secret: []byte(secret), ttl: ttl}, nil
}

// Issue signs a reset token proving control of the subject's recovery
// channel. The realm claim routes the eventual password update to the
// right principal store. The caller embeds the token into the recovery link.
func (m *ResetTokenManager) Issue(subjectID string, realm domain.Realm) (string, time.Time, error) {
	expiresAt := m.codec.now().Add(m.ttl)
	claims := &Claims{Purpose: PurposePasswordReset, Realm: string(realm)}
	claims.Subject = subjectID
	token, err := m.codec.Encode(claims, expiresAt, m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// Validate decodes a presented reset token and checks its purpose. A token
// of any other class, even one signed with the same secret, is rejected
// with ErrInvalidPurpose. On success the caller must consume the token's ID
// before committing the new password.
func (m *ResetTokenManager) Validate(token string) (*Claims, error) {
	claims, err := m.codec.Decode(token, m.secret)
	if err != nil {
		return nil, err
	}
	if claims.Purpose != PurposePasswordReset {
		return nil, ErrInvalidPurpose
	}
	return claims, nil
}
