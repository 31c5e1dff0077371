package services

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/HammerMeetNail/playit/internal/models"
)

const (
	RefreshTokenTTL  = 7 * 24 * time.Hour
	DefaultAccessTTL = 5 * time.Minute
	unknownDevice    = "Unknown"
	maxDeviceLength  = 512
)

type SessionPair struct {
	AccessToken    string
	RefreshToken   string
	RefreshTokenID uuid.UUID
	ExpiresIn      int
}

type AccessGrant struct {
	AccessToken string
	TokenType   string
	ExpiresIn   int
}

type AuthConfig struct {
	Issuer    string
	AppKey    string
	AccessTTL time.Duration
}

type AuthService struct {
	db          DB
	sessions    *SessionStore
	signer      TokenSigner
	issuer      string
	fingerprint string
	accessTTL   time.Duration
	now         func() time.Time
}

func NewAuthService(db DB, signer TokenSigner, cfg AuthConfig) *AuthService {
	ttl := cfg.AccessTTL
	if ttl <= 0 {
		ttl = DefaultAccessTTL
	}
	return &AuthService{
		db:          db,
		sessions:    NewSessionStore(),
		signer:      signer,
		issuer:      cfg.Issuer,
		fingerprint: SigningFingerprint(cfg.AppKey),
		accessTTL:   ttl,
		now:         time.Now,
	}
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func (s *AuthService) claimsFor(user *models.User, now time.Time, ttl time.Duration) *Claims {
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Fingerprint: s.fingerprint,
		Role:        string(user.Role),
		Name:        user.DisplayName(),
		UserCode:    user.Code,
	}
	if user.Profile != nil {
		claims.Email = user.Profile.Email
		claims.Avatar = user.Profile.AvatarURL
	}
	return claims
}

// IssueSessionPair mints an access/refresh pair and records the refresh
// token, replacing any live session the user already has.
func (s *AuthService) IssueSessionPair(ctx context.Context, user *models.User, meta models.SessionMeta) (*SessionPair, error) {
	now := s.now()

	access, err := s.signer.SignToken(s.claimsFor(user, now, s.accessTTL))
	if err != nil {
		return nil, err
	}

	refreshClaims := s.claimsFor(user, now, RefreshTokenTTL)
	refreshClaims.Type = refreshTokenType
	refresh, err := s.signer.SignToken(refreshClaims)
	if err != nil {
		return nil, err
	}

	rec := &models.RefreshTokenRecord{
		UserID:    user.ID,
		TokenHash: hashToken(refresh),
		IPAddress: meta.IPAddress,
		Device:    normalizeDevice(meta.Device),
		ExpiresAt: now.Add(RefreshTokenTTL),
	}

	err = withTx(ctx, s.db, "session", func(tx Tx) error {
		if err := s.sessions.LockUser(ctx, tx, user.ID); err != nil {
			return err
		}
		if _, err := s.sessions.PurgeExpired(ctx, tx, user.ID, now); err != nil {
			return err
		}
		if _, err := s.sessions.EvictLive(ctx, tx, user.ID, now); err != nil {
			return err
		}
		return s.sessions.Insert(ctx, tx, rec)
	})
	if err != nil {
		return nil, err
	}

	return &SessionPair{
		AccessToken:    access,
		RefreshToken:   refresh,
		RefreshTokenID: rec.ID,
		ExpiresIn:      int(s.accessTTL.Seconds()),
	}, nil
}

func normalizeDevice(device string) string {
	if device == "" {
		return unknownDevice
	}
	if len(device) > maxDeviceLength {
		return device[:maxDeviceLength]
	}
	return device
}

func (s *AuthService) verify(raw string) (*Claims, error) {
	claims, err := s.signer.VerifyToken(raw)
	if err != nil {
		return nil, err
	}
	if claims.Fingerprint != s.fingerprint {
		return nil, fmt.Errorf("%w: signing context mismatch", ErrTokenInvalid)
	}
	return claims, nil
}

// RefreshAccessToken mints a new access token from a refresh token. It
// checks only the token itself; the stored record is checked separately by
// ValidateSession, or by RefreshWithSession.
func (s *AuthService) RefreshAccessToken(ctx context.Context, raw string) (*AccessGrant, error) {
	return s.refresh(ctx, raw, nil)
}

// RefreshWithSession is RefreshAccessToken that also requires recordID to be
// the live stored record for this exact token.
func (s *AuthService) RefreshWithSession(ctx context.Context, raw string, recordID uuid.UUID) (*AccessGrant, error) {
	return s.refresh(ctx, raw, func(userID uuid.UUID) error {
		return s.checkSession(ctx, recordID, userID, hashToken(raw))
	})
}

func (s *AuthService) refresh(ctx context.Context, raw string, check func(userID uuid.UUID) error) (*AccessGrant, error) {
	claims, err := s.verify(raw)
	if err != nil {
		return nil, err
	}
	if !claims.IsRefresh() {
		return nil, ErrWrongTokenType
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: bad subject", ErrTokenInvalid)
	}

	if check != nil {
		if err := check(userID); err != nil {
			return nil, err
		}
	}

	user, err := loadUser(ctx, s.db, "u.id = $1", userID)
	if err != nil {
		return nil, err
	}
	if !user.Active {
		return nil, ErrAccountDisabled
	}

	access, err := s.signer.SignToken(s.claimsFor(user, s.now(), s.accessTTL))
	if err != nil {
		return nil, err
	}

	return &AccessGrant{
		AccessToken: access,
		TokenType:   "bearer",
		ExpiresIn:   int(s.accessTTL.Seconds()),
	}, nil
}

// ValidateSession reports whether the record is live. An expired record is
// deleted before reporting.
func (s *AuthService) ValidateSession(ctx context.Context, recordID, userID uuid.UUID) (bool, error) {
	if err := s.checkSession(ctx, recordID, userID, ""); err != nil {
		return false, err
	}
	return true, nil
}

// checkSession fails unless the record exists for userID and is live. A
// non-empty tokenHash must also match the stored hash.
func (s *AuthService) checkSession(ctx context.Context, recordID, userID uuid.UUID, tokenHash string) error {
	rec, err := s.sessions.GetForUser(ctx, s.db, recordID, userID)
	if err != nil {
		return err
	}

	if rec.Expired(s.now()) {
		if _, err := s.sessions.DeleteForUser(ctx, s.db, recordID, userID); err != nil {
			return err
		}
		return ErrSessionExpired
	}

	if tokenHash != "" && subtle.ConstantTimeCompare([]byte(rec.TokenHash), []byte(tokenHash)) != 1 {
		return ErrSessionNotFound
	}
	return nil
}

func (s *AuthService) Logout(ctx context.Context, recordID, userID uuid.UUID) error {
	deleted, err := s.sessions.DeleteForUser(ctx, s.db, recordID, userID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrSessionNotFound
	}
	return nil
}

// ParseAccessToken verifies a bearer token. Refresh tokens are refused.
func (s *AuthService) ParseAccessToken(raw string) (*Claims, error) {
	claims, err := s.verify(raw)
	if err != nil {
		return nil, err
	}
	if claims.IsRefresh() {
		return nil, fmt.Errorf("%w: refresh token used as bearer", ErrTokenInvalid)
	}
	return claims, nil
}

// UserFromClaims rebuilds the caller identity carried by an access token.
func UserFromClaims(claims *Claims) (*models.User, error) {
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: bad subject", ErrTokenInvalid)
	}
	user := &models.User{
		ID:     id,
		Role:   models.Role(claims.Role),
		Code:   claims.UserCode,
		Active: true,
	}
	if claims.Name != "" || claims.Email != "" {
		user.Profile = &models.Profile{Name: claims.Name, Email: claims.Email, AvatarURL: claims.Avatar}
	}
	return user, nil
}

var _ AuthServiceInterface = (*AuthService)(nil)
