package tests

import (
	"net/http"
	"testing"

	. "github.com/lusale/gpms/apps/api/echo"
	"github.com/lusale/gpms/core/identity"
)

func TestLogout(t *testing.T) {
	app, _, hub := setup(t)

	t.Run("authentication required", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/auth/logout")
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errMissingToken)}, rec)
	})

	t.Run("broadcasts the sign-out", func(t *testing.T) {
		hub.SignIn(advocate)

		var calls []*identity.Principal
		unsubscribe := hub.Subscribe(func(p *identity.Principal) { calls = append(calls, p) })
		defer unsubscribe()

		req, rec := newAuthRequest(http.MethodPost, "/v1/auth/logout", getToken(t, advocate))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marshallObj(t, SuccessResponse{Success: "Signed out."})}, rec)

		if len(calls) != 2 || calls[1] != nil {
			t.Errorf("sign-out not broadcast; calls = %v", calls)
		}
	})
}

func TestHome(t *testing.T) {
	app, _, _ := setup(t)

	req, rec := newRequest(http.MethodGet, "/")
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("code = %d", rec.Code)
	}
	if rec.Body.String() != "Welcome to the GPMS API!" {
		t.Errorf("body = %q", rec.Body.String())
	}
}
