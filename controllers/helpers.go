package controllers

import (
	"net/http"

	"github.com/texty-app/texty_backend/models"
	"github.com/texty-app/texty_backend/session"
)

// sessionFor returns the caller's session, opening one lazily when the server
// restarted after the token was issued.
func sessionFor(m *session.Manager, userID string) *session.Session {
	if sess := m.Get(userID); sess != nil {
		return sess
	}
	return m.Init(userID)
}

// statusForError maps domain errors onto HTTP status codes
func statusForError(err error) int {
	switch {
	case models.IsValidation(err):
		return http.StatusBadRequest
	case models.IsNotFound(err):
		return http.StatusNotFound
	case models.IsPartialBatch(err):
		return http.StatusPartialContent
	default:
		return http.StatusInternalServerError
	}
}
