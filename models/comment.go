package models

// Comment is an embedded sub-entity of a Post. Replies nest one level deep;
// replies to replies are flattened into the parent comment's reply list.
type Comment struct {
	CommentID       string    `json:"commentId" firestore:"commentId"`
	PostID          string    `json:"postId" firestore:"postId"`
	CommenterID     string    `json:"commenterId" firestore:"commenterId"`
	Content         string    `json:"content" firestore:"content"`
	Timestamp       int64     `json:"timestamp" firestore:"timestamp"`
	Likes           []string  `json:"likes" firestore:"likes"`
	Replies         []Comment `json:"replies" firestore:"replies"`
	ParentCommentID string    `json:"parentCommentId,omitempty" firestore:"parentCommentId,omitempty"`
	IsEdited        bool      `json:"isEdited,omitempty" firestore:"isEdited,omitempty"`
}

// Normalize defaults nil collections after deserialization.
func (c *Comment) Normalize() {
	if c.Likes == nil {
		c.Likes = []string{}
	}
	if c.Replies == nil {
		c.Replies = []Comment{}
	}
	for i := range c.Replies {
		c.Replies[i].Normalize()
	}
}

// CommentRequest is the body for adding a comment or a reply.
type CommentRequest struct {
	Content         string `json:"content" validate:"required"`
	ParentCommentID string `json:"parentCommentId,omitempty"`
}
