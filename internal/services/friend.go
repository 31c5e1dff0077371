package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/HammerMeetNail/playit/internal/models"
)

const pairPredicate = `LEAST(requester_id, recipient_id) = $1 AND GREATEST(requester_id, recipient_id) = $2`

type FriendService struct {
	db DB
}

func NewFriendService(db DB) *FriendService {
	return &FriendService{db: db}
}

func scanFriendRequest(row Row) (*models.FriendRequest, error) {
	fr := &models.FriendRequest{}
	var status string
	err := row.Scan(&fr.ID, &fr.RequesterID, &fr.RecipientID, &status, &fr.CreatedAt, &fr.UpdatedAt)
	if err != nil {
		return nil, err
	}
	fr.Status = models.FriendRequestStatus(status)
	return fr, nil
}

func (s *FriendService) SendRequest(ctx context.Context, requesterID, recipientID uuid.UUID) (*models.FriendRequest, error) {
	if requesterID == recipientID {
		return nil, ErrSelfRequest
	}

	var created *models.FriendRequest
	err := withTx(ctx, s.db, "friend request", func(tx Tx) error {
		var active bool
		err := tx.QueryRow(ctx, `SELECT active FROM users WHERE id = $1`, recipientID).Scan(&active)
		if errors.Is(err, pgx.ErrNoRows) || (err == nil && !active) {
			return ErrUserNotFound
		}
		if err != nil {
			return fmt.Errorf("checking recipient: %w", err)
		}

		low, high := models.CanonicalPair(requesterID, recipientID)

		var friends bool
		err = tx.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM friendships WHERE user_low = $1 AND user_high = $2)`,
			low, high,
		).Scan(&friends)
		if err != nil {
			return fmt.Errorf("checking friendship existence: %w", err)
		}
		if friends {
			return ErrAlreadyFriends
		}

		existing, err := scanFriendRequest(tx.QueryRow(ctx,
			`SELECT id, requester_id, recipient_id, status, created_at, updated_at
			 FROM friend_requests WHERE `+pairPredicate+` FOR UPDATE`,
			low, high,
		))
		switch {
		case errors.Is(err, pgx.ErrNoRows):
		case err != nil:
			return fmt.Errorf("loading friend request: %w", err)
		case existing.Status == models.FriendRequestRejected:
			if _, err := tx.Exec(ctx, `DELETE FROM friend_requests WHERE id = $1`, existing.ID); err != nil {
				return fmt.Errorf("clearing rejected request: %w", err)
			}
		default:
			return ErrDuplicateRequest
		}

		created, err = scanFriendRequest(tx.QueryRow(ctx,
			`INSERT INTO friend_requests (requester_id, recipient_id, status)
			 VALUES ($1, $2, 'pending')
			 RETURNING id, requester_id, recipient_id, status, created_at, updated_at`,
			requesterID, recipientID,
		))
		if isUniqueViolation(err) {
			return ErrDuplicateRequest
		}
		if err != nil {
			return fmt.Errorf("creating friend request: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// lockPending loads a pending request addressed to actingUserID and holds
// its row lock. A concurrent accept or reject of the same request waits,
// then finds it no longer pending.
func lockPending(ctx context.Context, tx Tx, requestID, actingUserID uuid.UUID) (*models.FriendRequest, error) {
	fr, err := scanFriendRequest(tx.QueryRow(ctx,
		`SELECT id, requester_id, recipient_id, status, created_at, updated_at
		 FROM friend_requests WHERE id = $1 AND status = 'pending' FOR UPDATE`,
		requestID,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRequestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading friend request: %w", err)
	}
	if fr.RequesterID == actingUserID {
		return nil, ErrForbidden
	}
	if fr.RecipientID != actingUserID {
		return nil, ErrRequestNotFound
	}
	return fr, nil
}

func (s *FriendService) AcceptRequest(ctx context.Context, requestID, actingUserID uuid.UUID) (*models.Friendship, error) {
	friendship := &models.Friendship{}
	err := withTx(ctx, s.db, "accept", func(tx Tx) error {
		fr, err := lockPending(ctx, tx, requestID, actingUserID)
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx,
			`UPDATE friend_requests SET status = 'accepted', updated_at = NOW() WHERE id = $1`,
			fr.ID,
		)
		if err != nil {
			return fmt.Errorf("accepting friend request: %w", err)
		}

		low, high := models.CanonicalPair(fr.RequesterID, fr.RecipientID)
		err = tx.QueryRow(ctx,
			`INSERT INTO friendships (user_low, user_high)
			 VALUES ($1, $2)
			 ON CONFLICT (user_low, user_high) DO NOTHING
			 RETURNING id, user_low, user_high, created_at`,
			low, high,
		).Scan(&friendship.ID, &friendship.UserLow, &friendship.UserHigh, &friendship.CreatedAt)
		if errors.Is(err, pgx.ErrNoRows) {
			err = tx.QueryRow(ctx,
				`SELECT id, user_low, user_high, created_at FROM friendships WHERE user_low = $1 AND user_high = $2`,
				low, high,
			).Scan(&friendship.ID, &friendship.UserLow, &friendship.UserHigh, &friendship.CreatedAt)
		}
		if err != nil {
			return fmt.Errorf("creating friendship: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return friendship, nil
}

// RejectRequest marks the request rejected. The row is kept until a new
// request for the same pair replaces it.
func (s *FriendService) RejectRequest(ctx context.Context, requestID, actingUserID uuid.UUID) error {
	return withTx(ctx, s.db, "reject", func(tx Tx) error {
		fr, err := lockPending(ctx, tx, requestID, actingUserID)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx,
			`UPDATE friend_requests SET status = 'rejected', updated_at = NOW() WHERE id = $1`,
			fr.ID,
		)
		if err != nil {
			return fmt.Errorf("rejecting friend request: %w", err)
		}
		return nil
	})
}

func (s *FriendService) listRequests(ctx context.Context, counterpartCol, ownerCol string, userID uuid.UUID) ([]models.FriendRequestView, error) {
	rows, err := s.db.Query(ctx,
		`SELECT fr.id, u.id, p.name, u.user_code, p.avatar_url, fr.created_at
		 FROM friend_requests fr
		 JOIN users u ON u.id = fr.`+counterpartCol+`
		 LEFT JOIN profiles p ON p.id = u.profile_id
		 WHERE fr.`+ownerCol+` = $1 AND fr.status = 'pending'
		 ORDER BY fr.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing friend requests: %w", err)
	}
	defer rows.Close()

	views := []models.FriendRequestView{}
	for rows.Next() {
		var v models.FriendRequestView
		var name *string
		if err := rows.Scan(&v.RequestID, &v.UserID, &name, &v.Code, &v.AvatarURL, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning friend request: %w", err)
		}
		v.Name = nameOrPlaceholder(name)
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating friend requests: %w", err)
	}
	return views, nil
}

func nameOrPlaceholder(name *string) string {
	if name == nil || *name == "" {
		return models.UnnamedUser
	}
	return *name
}

// ListSent returns pending requests the user has sent.
func (s *FriendService) ListSent(ctx context.Context, userID uuid.UUID) ([]models.FriendRequestView, error) {
	return s.listRequests(ctx, "recipient_id", "requester_id", userID)
}

// ListReceived returns pending requests waiting on the user.
func (s *FriendService) ListReceived(ctx context.Context, userID uuid.UUID) ([]models.FriendRequestView, error) {
	return s.listRequests(ctx, "requester_id", "recipient_id", userID)
}

func (s *FriendService) ListFriends(ctx context.Context, userID uuid.UUID) ([]models.FriendView, error) {
	rows, err := s.db.Query(ctx,
		`SELECT f.id, u.id, p.name, u.user_code, p.avatar_url, f.created_at
		 FROM friendships f
		 JOIN users u ON u.id = CASE WHEN f.user_low = $1 THEN f.user_high ELSE f.user_low END
		 LEFT JOIN profiles p ON p.id = u.profile_id
		 WHERE f.user_low = $1 OR f.user_high = $1
		 ORDER BY f.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing friends: %w", err)
	}
	defer rows.Close()

	friends := []models.FriendView{}
	for rows.Next() {
		var v models.FriendView
		var name *string
		if err := rows.Scan(&v.FriendshipID, &v.UserID, &name, &v.Code, &v.AvatarURL, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning friend: %w", err)
		}
		v.Name = nameOrPlaceholder(name)
		friends = append(friends, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating friends: %w", err)
	}
	return friends, nil
}

func (s *FriendService) PendingCounts(ctx context.Context, userID uuid.UUID) (*models.PendingCounts, error) {
	counts := &models.PendingCounts{}
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FILTER (WHERE requester_id = $1),
		        COUNT(*) FILTER (WHERE recipient_id = $1)
		 FROM friend_requests
		 WHERE status = 'pending' AND (requester_id = $1 OR recipient_id = $1)`,
		userID,
	).Scan(&counts.Sent, &counts.Received)
	if err != nil {
		return nil, fmt.Errorf("counting pending requests: %w", err)
	}
	counts.Total = counts.Sent + counts.Received
	return counts, nil
}

func (s *FriendService) FriendsCount(ctx context.Context, userID uuid.UUID) (int, error) {
	var n int
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM friendships WHERE user_low = $1 OR user_high = $1`,
		userID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting friends: %w", err)
	}
	return n, nil
}

func (s *FriendService) RelationshipStatus(ctx context.Context, userID, otherUserID uuid.UUID) (*models.Relationship, error) {
	low, high := models.CanonicalPair(userID, otherUserID)
	rel := &models.Relationship{}

	err := s.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM friendships WHERE user_low = $1 AND user_high = $2)`,
		low, high,
	).Scan(&rel.IsFriend)
	if err != nil {
		return nil, fmt.Errorf("checking friendship: %w", err)
	}

	var requesterID uuid.UUID
	var status string
	err = s.db.QueryRow(ctx,
		`SELECT requester_id, status FROM friend_requests WHERE `+pairPredicate,
		low, high,
	).Scan(&requesterID, &status)
	if errors.Is(err, pgx.ErrNoRows) {
		return rel, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading friend request: %w", err)
	}

	st := models.FriendRequestStatus(status)
	isSender := requesterID == userID
	rel.Status = &st
	rel.IsSender = &isSender
	return rel, nil
}
