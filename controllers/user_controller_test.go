package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/texty-app/texty_backend/models"
	"github.com/texty-app/texty_backend/services"
	"github.com/texty-app/texty_backend/session"
	"github.com/texty-app/texty_backend/stores"
)

func newUserControllerFixture(t *testing.T) (*UserController, *stores.MemoryUserStore) {
	t.Helper()
	store := stores.NewMemoryUserStore()
	ctx := context.Background()
	for _, u := range []struct{ id, name, username string }{
		{"alice", "Alice Smith", "alicesmith1234"},
		{"bob", "Bob Jones", "bobjones5678"},
		{"carol", "Carol Baker", "carolbaker9012"},
	} {
		if err := store.SaveUser(ctx, models.NewUser(u.id, u.id+"@example.com", u.name, u.username, "")); err != nil {
			t.Fatalf("SaveUser(%s): %v", u.id, err)
		}
	}
	graph := services.NewSocialGraphService(store, store)
	return NewUserController(store, graph, session.NewManager(store)), store
}

func searchUsers(t *testing.T, uc *UserController, target string) []models.User {
	t.Helper()
	c, rec := authedContext(t, http.MethodGet, target, "", "alice")
	if err := uc.SearchUsers(c); err != nil {
		t.Fatalf("SearchUsers: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp models.UsersResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return resp.Data
}

func TestSearchUsersMatchesNameAndUsername(t *testing.T) {
	uc, _ := newUserControllerFixture(t)

	got := searchUsers(t, uc, "/api/users?q=bob")
	if len(got) != 1 || got[0].UserID != "bob" {
		t.Fatalf("expected [bob], got %+v", got)
	}

	// username matches too
	got = searchUsers(t, uc, "/api/users?q=baker9012")
	if len(got) != 1 || got[0].UserID != "carol" {
		t.Fatalf("expected [carol], got %+v", got)
	}

	// case insensitive
	got = searchUsers(t, uc, "/api/users?q=BOB")
	if len(got) != 1 || got[0].UserID != "bob" {
		t.Fatalf("expected case-insensitive match, got %+v", got)
	}
}

func TestSearchUsersExcludesCaller(t *testing.T) {
	uc, _ := newUserControllerFixture(t)

	got := searchUsers(t, uc, "/api/users")
	if len(got) != 2 {
		t.Fatalf("expected everyone but the caller, got %+v", got)
	}
	for _, user := range got {
		if user.UserID == "alice" {
			t.Fatal("caller must not appear in search results")
		}
	}
}

func TestSearchUsersNoMatches(t *testing.T) {
	uc, _ := newUserControllerFixture(t)

	got := searchUsers(t, uc, "/api/users?q=nosuchperson")
	if len(got) != 0 {
		t.Fatalf("expected no matches, got %+v", got)
	}
}
