// README: Identity middleware tests.
package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"courier/internal/types"
)

func newIdentityRouter(capture *types.Actor) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Identity())
	r.GET("/probe", func(c *gin.Context) {
		*capture = ActorFrom(c)
		c.Status(http.StatusOK)
	})
	return r
}

func TestIdentityMissingHeader(t *testing.T) {
	var actor types.Actor
	r := newIdentityRouter(&actor)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestIdentityAttachesActor(t *testing.T) {
	var actor types.Actor
	r := newIdentityRouter(&actor)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("X-User-Id", "u-42")
	req.Header.Set("X-User-Role", "traveller")
	req.Header.Set("X-User-Verified", "true")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if actor.ID != "u-42" || actor.Role != types.RoleTraveller || !actor.Verified {
		t.Fatalf("actor = %+v", actor)
	}
}

func TestIdentityUnverifiedByDefault(t *testing.T) {
	var actor types.Actor
	r := newIdentityRouter(&actor)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("X-User-Id", "u-7")
	req.Header.Set("X-User-Role", "sender")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if actor.Verified {
		t.Fatal("missing verified header must read as unverified")
	}
}
