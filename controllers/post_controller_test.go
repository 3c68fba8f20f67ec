package controllers

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/texty-app/texty_backend/models"
	"github.com/texty-app/texty_backend/repositories"
	"github.com/texty-app/texty_backend/session"
	"github.com/texty-app/texty_backend/stores"
)

func newPostControllerFixture(t *testing.T) (*PostController, *stores.MemoryPostStore) {
	t.Helper()
	posts := stores.NewMemoryPostStore()
	users := stores.NewMemoryUserStore()
	repo := repositories.NewPostRepository(posts, stores.NewMemoryRepostStore())
	return NewPostController(repo, session.NewManager(users), nil), posts
}

func TestCreatePostAttachesVideoThumbnail(t *testing.T) {
	pc, posts := newPostControllerFixture(t)

	thumbnail := base64.StdEncoding.EncodeToString([]byte("frame"))
	pc.Thumbnailer = func(data, mediaType string) (string, error) {
		if mediaType != "video/mp4" {
			t.Fatalf("thumbnailer called for %s", mediaType)
		}
		return thumbnail, nil
	}

	video := base64.StdEncoding.EncodeToString([]byte("video-bytes"))
	body, _ := json.Marshal(models.PostRequest{
		Content:     "clip of the day",
		MediaBase64: []string{video},
		MediaTypes:  []string{"video/mp4"},
	})

	c, rec := authedContext(t, http.MethodPost, "/api/posts", string(body), "alice")
	if err := pc.CreatePost(c); err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp models.PostResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	post := resp.Data
	if post == nil {
		t.Fatal("expected created post in response")
	}
	if len(post.MediaBase64) != 2 || post.MediaBase64[1] != thumbnail {
		t.Fatalf("expected thumbnail appended to media, got %v", post.MediaBase64)
	}
	if len(post.MediaTypes) != 2 || post.MediaTypes[1] != "image/jpeg" {
		t.Fatalf("expected image/jpeg thumbnail type, got %v", post.MediaTypes)
	}

	stored, err := posts.Get(c.Request().Context(), post.PostID)
	if err != nil {
		t.Fatalf("Get stored post: %v", err)
	}
	if len(stored.MediaBase64) != 2 {
		t.Fatalf("expected stored post to carry the thumbnail, got %d media entries", len(stored.MediaBase64))
	}
}

func TestCreatePostThumbnailFailureIsTolerated(t *testing.T) {
	pc, _ := newPostControllerFixture(t)

	pc.Thumbnailer = func(data, mediaType string) (string, error) {
		return "", errors.New("ffmpeg unavailable")
	}

	video := base64.StdEncoding.EncodeToString([]byte("video-bytes"))
	body, _ := json.Marshal(models.PostRequest{
		Content:     "still posts without a thumbnail",
		MediaBase64: []string{video},
		MediaTypes:  []string{"video/mp4"},
	})

	c, rec := authedContext(t, http.MethodPost, "/api/posts", string(body), "alice")
	if err := pc.CreatePost(c); err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp models.PostResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got := resp.Data; got == nil || len(got.MediaBase64) != 1 {
		t.Fatalf("expected the video stored as sent, got %+v", got)
	}
}
