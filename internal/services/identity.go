package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/auth/credentials/idtoken"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/HammerMeetNail/playit/internal/models"
)

const (
	bcryptCost         = 12
	defaultProfileName = "Player"
)

// GoogleVerifier validates Google ID tokens issued for clientID.
type GoogleVerifier struct {
	clientID string
	validate func(ctx context.Context, token, audience string) (*idtoken.Payload, error)
}

func NewGoogleVerifier(clientID string) *GoogleVerifier {
	return &GoogleVerifier{clientID: clientID, validate: idtoken.Validate}
}

func (v *GoogleVerifier) VerifyAssertion(ctx context.Context, raw string) (*models.Identity, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrInvalidAssertion
	}

	payload, err := v.validate(ctx, raw, v.clientID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAssertion, err)
	}

	if verified, ok := payload.Claims["email_verified"].(bool); ok && !verified {
		return nil, fmt.Errorf("%w: email not verified", ErrInvalidAssertion)
	}

	identity := &models.Identity{
		Subject:    payload.Subject,
		Email:      claimString(payload.Claims, "email"),
		GivenName:  claimString(payload.Claims, "given_name"),
		FamilyName: claimString(payload.Claims, "family_name"),
	}
	if picture := claimString(payload.Claims, "picture"); picture != "" {
		identity.AvatarURL = &picture
	}
	return identity, nil
}

func claimString(claims map[string]interface{}, key string) string {
	s, _ := claims[key].(string)
	return strings.TrimSpace(s)
}

type IdentityService struct {
	db       DB
	verifier AssertionVerifier
	codes    CodeSequence
}

func NewIdentityService(db DB, verifier AssertionVerifier, codes CodeSequence) *IdentityService {
	return &IdentityService{db: db, verifier: verifier, codes: codes}
}

// Resolve maps a verified assertion to a local user, creating the profile and
// user together on first sight of an email.
func (s *IdentityService) Resolve(ctx context.Context, assertion string) (*models.User, error) {
	identity, err := s.verifier.VerifyAssertion(ctx, assertion)
	if err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(identity.Email))
	if email == "" {
		return nil, fmt.Errorf("%w: missing email", ErrInvalidAssertion)
	}

	var user *models.User
	err = withTx(ctx, s.db, "identity", func(tx Tx) error {
		profile, isNew, err := s.upsertProfile(ctx, tx, email, identity)
		if err != nil {
			return err
		}

		user, err = loadUser(ctx, tx, "u.profile_id = $1", profile.ID)
		if errors.Is(err, ErrUserNotFound) {
			if !isNew {
				return ErrUserNotFound
			}
			user, err = s.createUser(ctx, tx, profile)
		}
		if err != nil {
			return err
		}
		user.Profile = profile
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !user.Active {
		return nil, ErrAccountDisabled
	}
	return user, nil
}

func (s *IdentityService) upsertProfile(ctx context.Context, tx Tx, email string, identity *models.Identity) (*models.Profile, bool, error) {
	profile, err := lockProfileByEmail(ctx, tx, email)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, fmt.Errorf("loading profile: %w", err)
	}

	if errors.Is(err, pgx.ErrNoRows) {
		name := identity.GivenName
		if name == "" {
			name = defaultProfileName
		}
		profile = &models.Profile{}
		err = tx.QueryRow(ctx,
			`INSERT INTO profiles (name, surname, email, avatar_url)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (email) DO NOTHING
			 RETURNING id, name, surname, email, avatar_url, created_at, updated_at`,
			name, identity.FamilyName, email, identity.AvatarURL,
		).Scan(&profile.ID, &profile.Name, &profile.Surname, &profile.Email, &profile.AvatarURL, &profile.CreatedAt, &profile.UpdatedAt)
		if err == nil {
			return profile, true, nil
		}
		if isUniqueViolation(err) {
			return nil, false, ErrConflict
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, false, fmt.Errorf("creating profile: %w", err)
		}

		// A concurrent login inserted the same email first.
		profile, err = lockProfileByEmail(ctx, tx, email)
		if err != nil {
			return nil, false, fmt.Errorf("reloading profile: %w", err)
		}
	}

	if identity.AvatarURL != nil && *identity.AvatarURL != "" &&
		(profile.AvatarURL == nil || *profile.AvatarURL != *identity.AvatarURL) {
		_, err := tx.Exec(ctx,
			`UPDATE profiles SET avatar_url = $1, updated_at = NOW() WHERE id = $2`,
			*identity.AvatarURL, profile.ID,
		)
		if err != nil {
			return nil, false, fmt.Errorf("updating avatar: %w", err)
		}
		avatar := *identity.AvatarURL
		profile.AvatarURL = &avatar
	}

	return profile, false, nil
}

func lockProfileByEmail(ctx context.Context, q Querier, email string) (*models.Profile, error) {
	profile := &models.Profile{}
	err := q.QueryRow(ctx,
		`SELECT id, name, surname, email, avatar_url, created_at, updated_at
		 FROM profiles WHERE email = $1 FOR UPDATE`,
		email,
	).Scan(&profile.ID, &profile.Name, &profile.Surname, &profile.Email, &profile.AvatarURL, &profile.CreatedAt, &profile.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return profile, nil
}

func (s *IdentityService) createUser(ctx context.Context, tx Tx, profile *models.Profile) (*models.User, error) {
	// Hash first: Next locks the shared sequence row until commit.
	hash, err := hashPlaceholder()
	if err != nil {
		return nil, err
	}

	code, err := s.codes.Next(ctx, tx)
	if err != nil {
		return nil, err
	}

	profileID := profile.ID
	user := &models.User{
		ProfileID:    &profileID,
		Role:         models.RoleUser,
		Code:         code,
		Active:       true,
		PasswordHash: hash,
	}
	err = tx.QueryRow(ctx,
		`INSERT INTO users (profile_id, role_id, user_code, active, password_hash)
		 VALUES ($1, (SELECT id FROM roles WHERE name = $2), $3, true, $4)
		 RETURNING id, created_at, updated_at`,
		profileID, string(models.RoleUser), code, hash,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if isUniqueViolation(err) {
		return nil, ErrConflict
	}
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}
	return user, nil
}

var hashPlaceholder = placeholderCredential

// placeholderCredential hashes random bytes nobody knows. Federated users
// never log in with a password, but the column is required.
func placeholderCredential() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating random bytes: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(hex.EncodeToString(b)), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}
