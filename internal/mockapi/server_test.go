package mockapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestServer(t *testing.T, users ...User) (*Server, *httptest.Server) {
	t.Helper()
	s, err := New([]byte("test-signing-key"), time.Minute, users...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func post(t *testing.T, url, bearer string, body any) (*http.Response, tokenResponse) {
	t.Helper()
	buf, _ := json.Marshal(body)
	req, _ := http.NewRequest(http.MethodPost, url, bytes.NewReader(buf))
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	defer resp.Body.Close()
	var out tokenResponse
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func get(t *testing.T, url, bearer string) int {
	t.Helper()
	req, _ := http.NewRequest(http.MethodGet, url, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("get %s: %v", url, err)
	}
	resp.Body.Close()
	return resp.StatusCode
}

func TestLoginWithoutSecondFactor(t *testing.T) {
	s, ts := newTestServer(t, User{Username: "alice", Password: "pw"})

	resp, out := post(t, ts.URL+"/auth/login", "", map[string]string{"username": "alice", "password": "pw"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if out.AccessToken == "" || out.RefreshToken == "" {
		t.Fatalf("expected a token pair, got %+v", out)
	}
	if got := get(t, ts.URL+"/auth/me", out.AccessToken); got != http.StatusOK {
		t.Fatalf("expected 200 from /auth/me, got %d", got)
	}

	s.RevokeAll()
	if got := get(t, ts.URL+"/auth/me", out.AccessToken); got != http.StatusUnauthorized {
		t.Fatalf("expected 401 after revoke, got %d", got)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	_, ts := newTestServer(t, User{Username: "alice", Password: "pw"})

	resp, _ := post(t, ts.URL+"/auth/login", "", map[string]string{"username": "alice", "password": "nope"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestTwoFactorChallenge(t *testing.T) {
	secret := []byte("12345678901234567890")
	_, ts := newTestServer(t, User{Username: "bob", Password: "pw", TOTPSecret: secret, BackupCodes: []string{"11112222"}})

	_, out := post(t, ts.URL+"/auth/login", "", map[string]string{"username": "bob", "password": "pw"})
	if !out.TwoFactorRequired || out.ChallengeToken == "" || out.AccessToken != "" {
		t.Fatalf("expected a challenge, got %+v", out)
	}

	resp, _ := post(t, ts.URL+"/auth/2fa/verify", out.ChallengeToken, map[string]any{"code": "12345", "isBackupCode": false})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for a wrong code, got %d", resp.StatusCode)
	}

	resp, tokens := post(t, ts.URL+"/auth/2fa/verify", out.ChallengeToken, map[string]any{"code": "11112222", "isBackupCode": true})
	if resp.StatusCode != http.StatusOK || tokens.AccessToken == "" {
		t.Fatalf("expected tokens, got %d %+v", resp.StatusCode, tokens)
	}

	// The challenge is spent.
	resp, _ = post(t, ts.URL+"/auth/2fa/verify", out.ChallengeToken, map[string]any{"code": Code(secret, time.Now()), "isBackupCode": false})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for a spent challenge, got %d", resp.StatusCode)
	}
}

func TestTOTPCodeCannotBeReplayed(t *testing.T) {
	secret := []byte("12345678901234567890")
	_, ts := newTestServer(t, User{Username: "carol", Password: "pw", TOTPSecret: secret})

	code := Code(secret, time.Now())
	for i, want := range []int{http.StatusOK, http.StatusUnauthorized} {
		_, out := post(t, ts.URL+"/auth/login", "", map[string]string{"username": "carol", "password": "pw"})
		resp, _ := post(t, ts.URL+"/auth/2fa/verify", out.ChallengeToken, map[string]any{"code": code, "isBackupCode": false})
		if resp.StatusCode != want {
			t.Fatalf("attempt %d: expected %d, got %d", i, want, resp.StatusCode)
		}
	}
}

func TestBackupCodeSingleUse(t *testing.T) {
	_, ts := newTestServer(t, User{Username: "bob", Password: "pw", BackupCodes: []string{"11112222"}})

	for i, want := range []int{http.StatusOK, http.StatusUnauthorized} {
		_, out := post(t, ts.URL+"/auth/login", "", map[string]string{"username": "bob", "password": "pw"})
		resp, _ := post(t, ts.URL+"/auth/2fa/verify", out.ChallengeToken, map[string]any{"code": "11112222", "isBackupCode": true})
		if resp.StatusCode != want {
			t.Fatalf("attempt %d: expected %d, got %d", i, want, resp.StatusCode)
		}
	}
}

func TestGuardRejectsMissingBearer(t *testing.T) {
	s, ts := newTestServer(t)

	if got := get(t, ts.URL+"/auth/me", ""); got != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", got)
	}
	if got := get(t, ts.URL+"/auth/me", "not-a-jwt"); got != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", got)
	}
	if s.Requests() != 2 {
		t.Fatalf("expected 2 requests counted, got %d", s.Requests())
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"Bearer abc", "abc", true},
		{"Bearer ", "", false},
		{"bearer abc", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := bearerToken(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Fatalf("bearerToken(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
