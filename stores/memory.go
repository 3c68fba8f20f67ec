package stores

import (
	"context"
	"sort"
	"sync"

	"github.com/texty-app/texty_backend/models"
)

// MemoryPostStore is an in-memory PostStore honoring the same contract as
// the Firestore adapter. Used by tests and STORE_DRIVER=memory runs.
type MemoryPostStore struct {
	mu    sync.RWMutex
	posts map[string]models.Post

	// QueryFault, when set, lets tests fail selected queries.
	QueryFault func(q PostQuery) error
}

func NewMemoryPostStore() *MemoryPostStore {
	return &MemoryPostStore{posts: make(map[string]models.Post)}
}

func (s *MemoryPostStore) Get(ctx context.Context, postID string) (models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	post, ok := s.posts[postID]
	if !ok {
		return models.Post{}, &models.NotFoundError{Kind: "post", ID: postID}
	}
	return clonePost(post), nil
}

func (s *MemoryPostStore) Set(ctx context.Context, post models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts[post.PostID] = clonePost(post)
	return nil
}

func (s *MemoryPostStore) Update(ctx context.Context, postID string, fields map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	post, ok := s.posts[postID]
	if !ok {
		return &models.NotFoundError{Kind: "post", ID: postID}
	}

	for path, value := range fields {
		switch path {
		case "content":
			post.Content = value.(string)
		case "mediaBase64":
			post.MediaBase64 = append([]string(nil), value.([]string)...)
		case "likes":
			post.Likes = append([]string(nil), value.([]string)...)
		case "comments":
			post.Comments = cloneComments(value.([]models.Comment))
		case "reposts":
			post.Reposts = append([]string(nil), value.([]string)...)
		case "viewCount":
			post.ViewCount = value.(int)
		case "viewers":
			post.Viewers = append([]string(nil), value.([]string)...)
		case "isEdited":
			post.IsEdited = value.(bool)
		case "editHistory":
			post.EditHistory = append([]models.EditRecord(nil), value.([]models.EditRecord)...)
		}
	}
	s.posts[postID] = post
	return nil
}

func (s *MemoryPostStore) Delete(ctx context.Context, postID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.posts, postID)
	return nil
}

func (s *MemoryPostStore) Query(ctx context.Context, q PostQuery) ([]models.Post, error) {
	if s.QueryFault != nil {
		if err := s.QueryFault(q); err != nil {
			return nil, err
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var authors map[string]bool
	if len(q.AuthorIDs) > 0 {
		authors = make(map[string]bool, len(q.AuthorIDs))
		for _, id := range q.AuthorIDs {
			authors[id] = true
		}
	}

	var posts []models.Post
	for _, post := range s.posts {
		if authors != nil && !authors[post.UserID] {
			continue
		}
		if q.StartAfter > 0 && post.Timestamp >= q.StartAfter {
			continue
		}
		posts = append(posts, clonePost(post))
	}
	sort.Slice(posts, func(i, j int) bool { return posts[i].Timestamp > posts[j].Timestamp })
	if q.Limit > 0 && len(posts) > q.Limit {
		posts = posts[:q.Limit]
	}
	return posts, nil
}

// MemoryUserStore is an in-memory tree store for users, notifications and
// reposts.
type MemoryUserStore struct {
	mu            sync.RWMutex
	users         map[string]models.User
	notifications map[string]map[string]models.Notification // userID -> id -> record

	// UserFault, when set, lets tests fail reads of selected user ids.
	UserFault func(userID string) error
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{
		users:         make(map[string]models.User),
		notifications: make(map[string]map[string]models.Notification),
	}
}

func (s *MemoryUserStore) GetUser(ctx context.Context, userID string) (models.User, bool, error) {
	if s.UserFault != nil {
		if err := s.UserFault(userID); err != nil {
			return models.User{}, false, err
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[userID]
	if !ok {
		return models.User{}, false, nil
	}
	return cloneUser(user), true, nil
}

func (s *MemoryUserStore) SaveUser(ctx context.Context, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.UserID] = cloneUser(user)
	return nil
}

func (s *MemoryUserStore) SetFollowing(ctx context.Context, userID string, following []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		user = models.User{UserID: userID}
		user.Normalize()
	}
	user.Following = append([]string(nil), following...)
	s.users[userID] = user
	return nil
}

func (s *MemoryUserStore) SetFollowers(ctx context.Context, userID string, followers []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		user = models.User{UserID: userID}
		user.Normalize()
	}
	user.Followers = append([]string(nil), followers...)
	s.users[userID] = user
	return nil
}

func (s *MemoryUserStore) ListUsers(ctx context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]models.User, 0, len(s.users))
	for _, user := range s.users {
		users = append(users, cloneUser(user))
	}
	sort.Slice(users, func(i, j int) bool { return users[i].UserID < users[j].UserID })
	return users, nil
}

func (s *MemoryUserStore) Put(ctx context.Context, n models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	inbox, ok := s.notifications[n.TargetUserID]
	if !ok {
		inbox = make(map[string]models.Notification)
		s.notifications[n.TargetUserID] = inbox
	}
	inbox[n.ID] = n
	return nil
}

func (s *MemoryUserStore) List(ctx context.Context, userID string) ([]models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	notifications := make([]models.Notification, 0, len(s.notifications[userID]))
	for _, n := range s.notifications[userID] {
		notifications = append(notifications, n)
	}
	sort.Slice(notifications, func(i, j int) bool {
		return notifications[i].Timestamp > notifications[j].Timestamp
	})
	return notifications, nil
}

func (s *MemoryUserStore) MarkRead(ctx context.Context, userID, notificationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n, ok := s.notifications[userID][notificationID]; ok {
		n.Read = true
		s.notifications[userID][notificationID] = n
	}
	return nil
}

// MemoryRepostStore is the in-memory RepostStore counterpart.
type MemoryRepostStore struct {
	mu      sync.RWMutex
	reposts map[string]map[string]models.Repost
}

func NewMemoryRepostStore() *MemoryRepostStore {
	return &MemoryRepostStore{reposts: make(map[string]map[string]models.Repost)}
}

func (s *MemoryRepostStore) Put(ctx context.Context, r models.Repost) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byID, ok := s.reposts[r.OriginalPostID]
	if !ok {
		byID = make(map[string]models.Repost)
		s.reposts[r.OriginalPostID] = byID
	}
	byID[r.RepostID] = r
	return nil
}

func (s *MemoryRepostStore) List(ctx context.Context, postID string) ([]models.Repost, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	reposts := make([]models.Repost, 0, len(s.reposts[postID]))
	for _, r := range s.reposts[postID] {
		reposts = append(reposts, r)
	}
	sort.Slice(reposts, func(i, j int) bool { return reposts[i].Timestamp < reposts[j].Timestamp })
	return reposts, nil
}

func clonePost(p models.Post) models.Post {
	p.MediaBase64 = append([]string(nil), p.MediaBase64...)
	p.MediaTypes = append([]string(nil), p.MediaTypes...)
	p.Likes = append([]string(nil), p.Likes...)
	p.Comments = cloneComments(p.Comments)
	p.Reposts = append([]string(nil), p.Reposts...)
	p.Viewers = append([]string(nil), p.Viewers...)
	p.EditHistory = append([]models.EditRecord(nil), p.EditHistory...)
	p.Hashtags = append([]string(nil), p.Hashtags...)
	p.Mentions = append([]string(nil), p.Mentions...)
	return p
}

func cloneComments(comments []models.Comment) []models.Comment {
	out := make([]models.Comment, len(comments))
	for i, c := range comments {
		c.Likes = append([]string(nil), c.Likes...)
		c.Replies = cloneComments(c.Replies)
		out[i] = c
	}
	return out
}

func cloneUser(u models.User) models.User {
	u.Followers = append([]string(nil), u.Followers...)
	u.Following = append([]string(nil), u.Following...)
	u.Posts = append([]string(nil), u.Posts...)
	return u
}
