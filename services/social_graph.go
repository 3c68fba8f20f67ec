package services

import (
	"context"
	"log"
	"os"

	"github.com/texty-app/texty_backend/models"
	"github.com/texty-app/texty_backend/session"
	"github.com/texty-app/texty_backend/stores"
)

// SocialGraphService maintains the symmetric follower/following edges in
// the tree store and fans out follow notifications. The store offers no
// cross-record transactions, so the three writes of a follow run as a
// best-effort sequence in a fixed order: the follower's following list,
// then the target's followers list, then the notification. A failure after
// the first persisted write is logged and tolerated, never rolled back.
type SocialGraphService struct {
	users         stores.UserStore
	notifications stores.NotificationStore
	logger        *log.Logger

	// OnFollow, when set, is invoked after a new edge and its notification
	// have been written. Used for best-effort push/websocket delivery.
	OnFollow func(from, target models.User, n models.Notification)
}

// NewSocialGraphService creates the service over the tree store.
func NewSocialGraphService(users stores.UserStore, notifications stores.NotificationStore) *SocialGraphService {
	return &SocialGraphService{
		users:         users,
		notifications: notifications,
		logger:        log.New(os.Stdout, "[GRAPH] ", log.LstdFlags),
	}
}

// Follow adds targetUserID to the session user's following set and the
// session user to the target's followers set, then writes a follow
// notification to the target's inbox. Following an already-followed user
// changes nothing and emits no second notification.
func (s *SocialGraphService) Follow(ctx context.Context, sess *session.Session, targetUserID string) error {
	currentUserID := sess.UserID
	if currentUserID == targetUserID {
		return &models.ValidationError{Message: "cannot follow yourself"}
	}

	current, ok, err := s.users.GetUser(ctx, currentUserID)
	if err != nil {
		return err
	}
	if !ok {
		return &models.NotFoundError{Kind: "user", ID: currentUserID}
	}

	edgeExisted := containsID(current.Following, targetUserID)
	if !edgeExisted {
		current.Following = append(current.Following, targetUserID)
		if err := s.users.SetFollowing(ctx, currentUserID, current.Following); err != nil {
			return err
		}
		s.refreshSession(sess, current)
	}

	target, ok, err := s.users.GetUser(ctx, targetUserID)
	if err != nil {
		// following edge is already persisted; not rolled back
		s.logger.Printf("follow %s -> %s: target read failed: %v", currentUserID, targetUserID, err)
		return nil
	}
	if !ok {
		// no target record means nobody to notify
		s.logger.Printf("follow %s -> %s: target missing, notification skipped", currentUserID, targetUserID)
		return nil
	}
	if !containsID(target.Followers, currentUserID) {
		target.Followers = append(target.Followers, currentUserID)
		if err := s.users.SetFollowers(ctx, targetUserID, target.Followers); err != nil {
			s.logger.Printf("follow %s -> %s: followers write failed: %v", currentUserID, targetUserID, err)
		} else {
			sess.Cache.Put(target)
		}
	}

	if edgeExisted {
		return nil
	}

	notification := models.NewFollowNotification(currentUserID, targetUserID)
	if err := s.notifications.Put(ctx, notification); err != nil {
		s.logger.Printf("follow %s -> %s: notification write failed: %v", currentUserID, targetUserID, err)
		return nil
	}
	if s.OnFollow != nil {
		s.OnFollow(current, target, notification)
	}
	return nil
}

// Unfollow removes the edge from both sides. Unfollowing a user who was
// never followed is a no-op, not an error.
func (s *SocialGraphService) Unfollow(ctx context.Context, sess *session.Session, targetUserID string) error {
	currentUserID := sess.UserID

	current, ok, err := s.users.GetUser(ctx, currentUserID)
	if err != nil {
		return err
	}
	if ok && containsID(current.Following, targetUserID) {
		current.Following = removeID(current.Following, targetUserID)
		if err := s.users.SetFollowing(ctx, currentUserID, current.Following); err != nil {
			return err
		}
		s.refreshSession(sess, current)
	}

	target, ok, err := s.users.GetUser(ctx, targetUserID)
	if err != nil {
		s.logger.Printf("unfollow %s -> %s: target read failed: %v", currentUserID, targetUserID, err)
		return nil
	}
	if ok && containsID(target.Followers, currentUserID) {
		target.Followers = removeID(target.Followers, currentUserID)
		if err := s.users.SetFollowers(ctx, targetUserID, target.Followers); err != nil {
			s.logger.Printf("unfollow %s -> %s: followers write failed: %v", currentUserID, targetUserID, err)
		} else {
			sess.Cache.Put(target)
		}
	}
	return nil
}

// ListFollowers resolves a user's follower ids to full records through the
// session cache. Ids that fail to resolve are dropped from the result.
func (s *SocialGraphService) ListFollowers(ctx context.Context, sess *session.Session, userID string) ([]models.User, error) {
	user, ok, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &models.NotFoundError{Kind: "user", ID: userID}
	}
	return s.resolveAll(ctx, sess, user.Followers), nil
}

// ListFollowing resolves a user's following ids to full records through
// the session cache. Ids that fail to resolve are dropped from the result.
func (s *SocialGraphService) ListFollowing(ctx context.Context, sess *session.Session, userID string) ([]models.User, error) {
	user, ok, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &models.NotFoundError{Kind: "user", ID: userID}
	}
	return s.resolveAll(ctx, sess, user.Following), nil
}

func (s *SocialGraphService) resolveAll(ctx context.Context, sess *session.Session, ids []string) []models.User {
	users := make([]models.User, 0, len(ids))
	for _, id := range ids {
		user, err := sess.Cache.Resolve(ctx, id)
		if err != nil {
			s.logger.Printf("resolve %s failed: %v", id, err)
			continue
		}
		users = append(users, user)
	}
	return users
}

// refreshSession pushes an updated profile into the session cache and,
// when it belongs to the signed-in user, the current-user stream.
func (s *SocialGraphService) refreshSession(sess *session.Session, user models.User) {
	sess.Cache.Put(user)
	if sess.UserID == user.UserID {
		updated := user
		sess.CurrentUser.Set(&updated)
	}
}

func containsID(set []string, id string) bool {
	for _, m := range set {
		if m == id {
			return true
		}
	}
	return false
}

func removeID(set []string, id string) []string {
	out := make([]string, 0, len(set))
	for _, m := range set {
		if m != id {
			out = append(out, m)
		}
	}
	return out
}
