package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/HammerMeetNail/playit/internal/models"
)

const userSelect = `SELECT u.id, u.profile_id, r.name, u.user_code, u.active, u.created_at, u.updated_at,
		p.id, p.name, p.surname, p.email, p.avatar_url, p.created_at, p.updated_at
	 FROM users u
	 JOIN roles r ON r.id = u.role_id
	 LEFT JOIN profiles p ON p.id = u.profile_id`

type userScanner interface {
	Scan(dest ...any) error
}

func scanUser(row userScanner) (*models.User, error) {
	user := &models.User{}
	var role string
	var (
		profileID        *uuid.UUID
		name, surname    *string
		email, avatarURL *string
		pCreated, pUpd   *time.Time
	)
	err := row.Scan(&user.ID, &user.ProfileID, &role, &user.Code, &user.Active, &user.CreatedAt, &user.UpdatedAt,
		&profileID, &name, &surname, &email, &avatarURL, &pCreated, &pUpd)
	if err != nil {
		return nil, err
	}
	user.Role = models.Role(role)

	if profileID != nil {
		p := &models.Profile{ID: *profileID, AvatarURL: avatarURL}
		if name != nil {
			p.Name = *name
		}
		if surname != nil {
			p.Surname = *surname
		}
		if email != nil {
			p.Email = *email
		}
		if pCreated != nil {
			p.CreatedAt = *pCreated
		}
		if pUpd != nil {
			p.UpdatedAt = *pUpd
		}
		user.Profile = p
	}
	return user, nil
}

func loadUser(ctx context.Context, q Querier, where string, arg any) (*models.User, error) {
	user, err := scanUser(q.QueryRow(ctx, userSelect+" WHERE "+where, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading user: %w", err)
	}
	return user, nil
}

type UserService struct {
	db      DB
	friends RelationshipChecker
}

func NewUserService(db DB, friends RelationshipChecker) *UserService {
	return &UserService{db: db, friends: friends}
}

func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return loadUser(ctx, s.db, "u.id = $1", id)
}

// SearchByCode finds active users with exactly this code, other than the
// caller, annotated with how the caller relates to each.
func (s *UserService) SearchByCode(ctx context.Context, currentUserID uuid.UUID, code string) ([]models.UserSearchResult, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrUserNotFound
	}

	rows, err := s.db.Query(ctx,
		userSelect+` WHERE u.user_code = $1 AND u.active = true AND u.id <> $2 ORDER BY u.created_at`,
		code, currentUserID,
	)
	if err != nil {
		return nil, fmt.Errorf("searching users by code: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating users: %w", err)
	}
	if len(users) == 0 {
		return nil, ErrUserNotFound
	}

	results := make([]models.UserSearchResult, 0, len(users))
	for _, u := range users {
		rel, err := s.friends.RelationshipStatus(ctx, currentUserID, u.ID)
		if err != nil {
			return nil, err
		}
		result := models.UserSearchResult{
			ID:           u.ID,
			Name:         u.DisplayName(),
			Code:         u.Code,
			Relationship: rel,
		}
		if u.Profile != nil {
			result.AvatarURL = u.Profile.AvatarURL
		}
		results = append(results, result)
	}
	return results, nil
}
