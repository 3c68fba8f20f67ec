package stores

import (
	"context"
	"fmt"
	"sort"

	"firebase.google.com/go/v4/db"

	"github.com/texty-app/texty_backend/models"
)

// RTDBStore backs the tree-store contracts (users, notifications, reposts)
// with the Firebase Realtime Database. A read of a missing path unmarshals
// to the zero record, which matches the "absent means empty" contract.
type RTDBStore struct {
	client *db.Client
}

// NewRTDBStore wraps an initialized Realtime Database client.
func NewRTDBStore(client *db.Client) *RTDBStore {
	return &RTDBStore{client: client}
}

func (s *RTDBStore) GetUser(ctx context.Context, userID string) (models.User, bool, error) {
	var user models.User
	ref := s.client.NewRef("users/" + userID)
	if err := ref.Get(ctx, &user); err != nil {
		return models.User{}, false, &models.RemoteError{Op: "rtdb get user", Err: err}
	}
	if user.UserID == "" {
		return models.User{}, false, nil
	}
	user.Normalize()
	return user, true, nil
}

func (s *RTDBStore) SaveUser(ctx context.Context, user models.User) error {
	ref := s.client.NewRef("users/" + user.UserID)
	if err := ref.Set(ctx, user); err != nil {
		return &models.RemoteError{Op: "rtdb save user", Err: err}
	}
	return nil
}

func (s *RTDBStore) SetFollowing(ctx context.Context, userID string, following []string) error {
	ref := s.client.NewRef(fmt.Sprintf("users/%s/following", userID))
	if err := ref.Set(ctx, following); err != nil {
		return &models.RemoteError{Op: "rtdb set following", Err: err}
	}
	return nil
}

func (s *RTDBStore) SetFollowers(ctx context.Context, userID string, followers []string) error {
	ref := s.client.NewRef(fmt.Sprintf("users/%s/followers", userID))
	if err := ref.Set(ctx, followers); err != nil {
		return &models.RemoteError{Op: "rtdb set followers", Err: err}
	}
	return nil
}

func (s *RTDBStore) ListUsers(ctx context.Context) ([]models.User, error) {
	var byID map[string]models.User
	if err := s.client.NewRef("users").Get(ctx, &byID); err != nil {
		return nil, &models.RemoteError{Op: "rtdb list users", Err: err}
	}

	users := make([]models.User, 0, len(byID))
	for _, user := range byID {
		user.Normalize()
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].UserID < users[j].UserID })
	return users, nil
}

func (s *RTDBStore) Put(ctx context.Context, n models.Notification) error {
	ref := s.client.NewRef(fmt.Sprintf("notifications/%s/%s", n.TargetUserID, n.ID))
	if err := ref.Set(ctx, n); err != nil {
		return &models.RemoteError{Op: "rtdb put notification", Err: err}
	}
	return nil
}

func (s *RTDBStore) List(ctx context.Context, userID string) ([]models.Notification, error) {
	var byID map[string]models.Notification
	if err := s.client.NewRef("notifications/"+userID).Get(ctx, &byID); err != nil {
		return nil, &models.RemoteError{Op: "rtdb list notifications", Err: err}
	}

	notifications := make([]models.Notification, 0, len(byID))
	for _, n := range byID {
		notifications = append(notifications, n)
	}
	sort.Slice(notifications, func(i, j int) bool {
		return notifications[i].Timestamp > notifications[j].Timestamp
	})
	return notifications, nil
}

func (s *RTDBStore) MarkRead(ctx context.Context, userID, notificationID string) error {
	ref := s.client.NewRef(fmt.Sprintf("notifications/%s/%s/read", userID, notificationID))
	if err := ref.Set(ctx, true); err != nil {
		return &models.RemoteError{Op: "rtdb mark notification read", Err: err}
	}
	return nil
}

// RTDBRepostStore backs RepostStore with the reposts/ subtree. Separate
// from RTDBStore so both can satisfy their single-method-set interfaces
// without Put signatures colliding.
type RTDBRepostStore struct {
	client *db.Client
}

func NewRTDBRepostStore(client *db.Client) *RTDBRepostStore {
	return &RTDBRepostStore{client: client}
}

func (s *RTDBRepostStore) Put(ctx context.Context, r models.Repost) error {
	ref := s.client.NewRef(fmt.Sprintf("reposts/%s/%s", r.OriginalPostID, r.RepostID))
	if err := ref.Set(ctx, r); err != nil {
		return &models.RemoteError{Op: "rtdb put repost", Err: err}
	}
	return nil
}

func (s *RTDBRepostStore) List(ctx context.Context, postID string) ([]models.Repost, error) {
	var byID map[string]models.Repost
	if err := s.client.NewRef("reposts/"+postID).Get(ctx, &byID); err != nil {
		return nil, &models.RemoteError{Op: "rtdb list reposts", Err: err}
	}

	reposts := make([]models.Repost, 0, len(byID))
	for _, r := range byID {
		reposts = append(reposts, r)
	}
	sort.Slice(reposts, func(i, j int) bool { return reposts[i].Timestamp < reposts[j].Timestamp })
	return reposts, nil
}
