package server

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"golang.org/x/oauth2"
)

func tokenEndpoint(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		if r.Form.Get("code") != "good-code" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"at","refresh_token":"rt","token_type":"Bearer","expires_in":3600}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func callback(h http.Handler, query string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?"+query, nil))
	return rec
}

func TestOAuthHandler(t *testing.T) {
	newHandler := func(t *testing.T) *OAuthHandler {
		srv := tokenEndpoint(t)
		cfg := &oauth2.Config{
			ClientID:    "id",
			RedirectURL: "http://127.0.0.1:3000/callback",
			Endpoint:    oauth2.Endpoint{AuthURL: "https://accounts.example.com/auth", TokenURL: srv.URL},
		}
		return NewOAuthHandler(cfg, "state-1", "YouTube")
	}

	t.Run("AuthCodeURL", func(t *testing.T) {
		u, err := url.Parse(newHandler(t).AuthCodeURL())
		if err != nil {
			t.Fatalf("invalid url: %v", err)
		}
		q := u.Query()
		if q.Get("state") != "state-1" || q.Get("access_type") != "offline" || q.Get("prompt") != "consent" {
			t.Errorf("unexpected query %v", q)
		}
	})

	t.Run("Exchanges Code", func(t *testing.T) {
		h := newHandler(t)
		rec := callback(h, "state=state-1&code=good-code")

		if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "YouTube connected") {
			t.Errorf("unexpected response %d %s", rec.Code, rec.Body.String())
		}
		result := <-h.Result()
		if result.Error() != nil || result.Token == nil || result.Token.RefreshToken != "rt" {
			t.Errorf("unexpected result %+v %v", result.Token, result.Error())
		}
	})

	t.Run("Rejects Bad State", func(t *testing.T) {
		h := newHandler(t)
		rec := callback(h, "state=other&code=good-code")

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
		if result := <-h.Result(); result.Error() == nil {
			t.Error("expected state error")
		}
	})

	t.Run("Denied", func(t *testing.T) {
		h := newHandler(t)
		callback(h, "state=state-1&error=access_denied")

		result := <-h.Result()
		if result.Error() == nil || !strings.Contains(result.Error().Error(), "access_denied") {
			t.Errorf("expected access_denied, got %v", result.Error())
		}
	})

	t.Run("Exchange Failure", func(t *testing.T) {
		h := newHandler(t)
		rec := callback(h, "state=state-1&code=bad-code")

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}
		if result := <-h.Result(); result.Error() == nil {
			t.Error("expected exchange error")
		}
	})

	t.Run("Only First Callback", func(t *testing.T) {
		h := newHandler(t)
		callback(h, "state=state-1&code=good-code")
		rec := callback(h, "state=state-1&code=good-code")

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected replay to be rejected, got %d", rec.Code)
		}
		<-h.Result()
		if _, open := <-h.Result(); open {
			t.Error("expected result channel to be closed after one result")
		}
	})
}
