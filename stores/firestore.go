package stores

import (
	"context"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/texty-app/texty_backend/models"
)

const postsCollection = "posts"

// FirestorePostStore backs PostStore with a Cloud Firestore collection.
type FirestorePostStore struct {
	client *firestore.Client
}

// NewFirestorePostStore wraps an initialized Firestore client.
func NewFirestorePostStore(client *firestore.Client) *FirestorePostStore {
	return &FirestorePostStore{client: client}
}

func (s *FirestorePostStore) Get(ctx context.Context, postID string) (models.Post, error) {
	doc, err := s.client.Collection(postsCollection).Doc(postID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return models.Post{}, &models.NotFoundError{Kind: "post", ID: postID}
	}
	if err != nil {
		return models.Post{}, &models.RemoteError{Op: "firestore get post", Err: err}
	}

	var post models.Post
	if err := doc.DataTo(&post); err != nil {
		return models.Post{}, &models.RemoteError{Op: "firestore decode post", Err: err}
	}
	post.PostID = doc.Ref.ID
	post.Normalize()
	return post, nil
}

func (s *FirestorePostStore) Set(ctx context.Context, post models.Post) error {
	_, err := s.client.Collection(postsCollection).Doc(post.PostID).Set(ctx, post)
	if err != nil {
		return &models.RemoteError{Op: "firestore set post", Err: err}
	}
	return nil
}

func (s *FirestorePostStore) Update(ctx context.Context, postID string, fields map[string]interface{}) error {
	updates := make([]firestore.Update, 0, len(fields))
	for path, value := range fields {
		updates = append(updates, firestore.Update{Path: path, Value: value})
	}

	_, err := s.client.Collection(postsCollection).Doc(postID).Update(ctx, updates)
	if status.Code(err) == codes.NotFound {
		return &models.NotFoundError{Kind: "post", ID: postID}
	}
	if err != nil {
		return &models.RemoteError{Op: "firestore update post", Err: err}
	}
	return nil
}

func (s *FirestorePostStore) Delete(ctx context.Context, postID string) error {
	// Firestore deletes are idempotent; deleting a missing doc succeeds.
	_, err := s.client.Collection(postsCollection).Doc(postID).Delete(ctx)
	if err != nil {
		return &models.RemoteError{Op: "firestore delete post", Err: err}
	}
	return nil
}

func (s *FirestorePostStore) Query(ctx context.Context, q PostQuery) ([]models.Post, error) {
	query := s.client.Collection(postsCollection).Query
	if len(q.AuthorIDs) > 0 {
		query = query.Where("userId", "in", q.AuthorIDs)
	}
	query = query.OrderBy("timestamp", firestore.Desc)
	if q.StartAfter > 0 {
		query = query.StartAfter(q.StartAfter)
	}
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var posts []models.Post
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, &models.RemoteError{Op: "firestore query posts", Err: err}
		}

		var post models.Post
		if err := doc.DataTo(&post); err != nil {
			return nil, &models.RemoteError{Op: "firestore decode post", Err: err}
		}
		post.PostID = doc.Ref.ID
		post.Normalize()
		posts = append(posts, post)
	}
	return posts, nil
}
