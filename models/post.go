package models

import (
	"time"

	"github.com/google/uuid"
)

// PostType classifies a post as an original, a reply, or a quote.
type PostType string

const (
	PostTypeOriginal PostType = "ORIGINAL"
	PostTypeReply    PostType = "REPLY"
	PostTypeQuote    PostType = "QUOTE"
)

// RepostType distinguishes a plain reshare from a quote-with-comment.
type RepostType string

const (
	RepostTypeRetweet RepostType = "RETWEET"
	RepostTypeQuote   RepostType = "QUOTE"
)

// MaxPostLength bounds the text body of a post.
const MaxPostLength = 280

// Post is a single content unit stored in the posts collection.
// Likes, viewers and reposts carry set semantics; EditHistory is append-only.
type Post struct {
	PostID       string       `json:"postId" firestore:"postId"`
	UserID       string       `json:"userId" firestore:"userId"`
	Content      string       `json:"content" firestore:"content"`
	MediaBase64  []string     `json:"mediaBase64" firestore:"mediaBase64"`
	MediaTypes   []string     `json:"mediaTypes" firestore:"mediaTypes"` // "image" or "video"
	Timestamp    int64        `json:"timestamp" firestore:"timestamp"`
	Likes        []string     `json:"likes" firestore:"likes"`
	Comments     []Comment    `json:"comments" firestore:"comments"`
	Reposts      []string     `json:"reposts" firestore:"reposts"`
	ViewCount    int          `json:"viewCount" firestore:"viewCount"`
	Viewers      []string     `json:"viewers" firestore:"viewers"`
	IsEdited     bool         `json:"isEdited" firestore:"isEdited"`
	EditHistory  []EditRecord `json:"editHistory" firestore:"editHistory"`
	Hashtags     []string     `json:"hashtags" firestore:"hashtags"`
	Mentions     []string     `json:"mentions" firestore:"mentions"`
	PostType     PostType     `json:"postType" firestore:"postType"`
	ParentPostID string       `json:"parentPostId,omitempty" firestore:"parentPostId,omitempty"`
	Location     string       `json:"location,omitempty" firestore:"location,omitempty"`
}

// EditRecord is one snapshot of a post's content as it was immediately
// before an edit.
type EditRecord struct {
	EditTimestamp       int64    `json:"editTimestamp" firestore:"editTimestamp"`
	PreviousContent     string   `json:"previousContent" firestore:"previousContent"`
	PreviousMediaBase64 []string `json:"previousMediaBase64" firestore:"previousMediaBase64"`
}

// Repost links a reposting user to an original post. Quote reposts also
// create a new Post whose ParentPostID points at the original.
type Repost struct {
	RepostID          string     `json:"repostId"`
	OriginalPostID    string     `json:"originalPostId"`
	ReposterID        string     `json:"reposterId"`
	Timestamp         int64      `json:"timestamp"`
	AdditionalComment string     `json:"additionalComment,omitempty"`
	RepostType        RepostType `json:"repostType"`
}

// NewPost builds a post with defaulted collections so a partially-populated
// record never round-trips as nil slices.
func NewPost(postID, userID, content string) Post {
	if postID == "" {
		postID = uuid.New().String()
	}
	return Post{
		PostID:      postID,
		UserID:      userID,
		Content:     content,
		MediaBase64: []string{},
		MediaTypes:  []string{},
		Timestamp:   time.Now().UnixMilli(),
		Likes:       []string{},
		Comments:    []Comment{},
		Reposts:     []string{},
		Viewers:     []string{},
		EditHistory: []EditRecord{},
		Hashtags:    []string{},
		Mentions:    []string{},
		PostType:    PostTypeOriginal,
	}
}

// Normalize fills in defaults for optional fields after deserializing a
// remote record, so downstream code never sees nil collections.
func (p *Post) Normalize() {
	if p.MediaBase64 == nil {
		p.MediaBase64 = []string{}
	}
	if p.MediaTypes == nil {
		p.MediaTypes = []string{}
	}
	if p.Likes == nil {
		p.Likes = []string{}
	}
	if p.Comments == nil {
		p.Comments = []Comment{}
	}
	if p.Reposts == nil {
		p.Reposts = []string{}
	}
	if p.Viewers == nil {
		p.Viewers = []string{}
	}
	if p.EditHistory == nil {
		p.EditHistory = []EditRecord{}
	}
	if p.Hashtags == nil {
		p.Hashtags = []string{}
	}
	if p.Mentions == nil {
		p.Mentions = []string{}
	}
	if p.PostType == "" {
		p.PostType = PostTypeOriginal
	}
	for i := range p.Comments {
		p.Comments[i].Normalize()
	}
}

// PostRequest is the body for creating a new post.
type PostRequest struct {
	PostID       string   `json:"postId,omitempty"`
	Content      string   `json:"content"`
	MediaBase64  []string `json:"mediaBase64,omitempty"`
	MediaTypes   []string `json:"mediaTypes,omitempty"`
	PostType     PostType `json:"postType,omitempty"`
	ParentPostID string   `json:"parentPostId,omitempty"`
	Location     string   `json:"location,omitempty"`
}

// EditPostRequest is the body for editing an existing post.
type EditPostRequest struct {
	Content     string   `json:"content"`
	MediaBase64 []string `json:"mediaBase64,omitempty"`
}

// RepostRequest is the body for resharing a post.
type RepostRequest struct {
	RepostType        RepostType `json:"repostType"`
	AdditionalComment string     `json:"additionalComment,omitempty"`
}

// PostResponse model for single post responses
type PostResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    *Post  `json:"data,omitempty"`
}

// PostsResponse model for multiple post responses
type PostsResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    []Post `json:"data,omitempty"`
}
