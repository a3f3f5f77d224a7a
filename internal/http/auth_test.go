package handlers_test

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"pumarket/internal/domain"
)

func TestPasswordsSeededAreHashed(t *testing.T) {
	ta := newTestApp(t)
	var hashes []string
	if err := ta.db.Select(&hashes, `SELECT password_hash FROM profiles`); err != nil {
		t.Fatalf("select hashes: %v", err)
	}
	if len(hashes) == 0 {
		t.Fatal("no users seeded")
	}
	for _, h := range hashes {
		if strings.Contains(h, "Passw0rd!") || !strings.HasPrefix(h, "$2") {
			t.Fatalf("unexpected hash: %s", h)
		}
		if err := bcrypt.CompareHashAndPassword([]byte(h), []byte("Passw0rd!")); err != nil {
			t.Fatalf("seed hash does not validate known password: %v", err)
		}
	}
}

func TestLoginSuccessFailAndThrottle(t *testing.T) {
	ta := newTestApp(t)

	bad := url.Values{"email": {"alice@pumarket.test"}, "password": {"wrongpass!"}}
	if resp := ta.post(t, "/login", "", bad); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad creds, got %d", resp.StatusCode)
	}

	good := url.Values{"email": {"alice@pumarket.test"}, "password": {"Passw0rd!"}}
	resp := ta.post(t, "/login", "", good)
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected redirect on success, got %d", resp.StatusCode)
	}
	sid := cookie(resp, "sid")
	if sid == "" {
		t.Fatal("no session cookie after login")
	}
	if page := body(t, ta.get(t, "/", sid)); !strings.Contains(page, "alice@pumarket.test") || !strings.Contains(page, `href="/seller"`) {
		t.Fatal("signed-in header missing")
	}

	// Limit is 3 per minute; the third attempt passes, the fourth is refused.
	_ = ta.post(t, "/login", "", bad)
	if resp := ta.post(t, "/login", "", bad); resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after throttle, got %d", resp.StatusCode)
	}
}

func TestSignupGrantsPublicRole(t *testing.T) {
	ta := newTestApp(t)

	form := url.Values{"email": {"dana@pumarket.test"}, "full_name": {"Dana"}, "password": {"Str0ng!pass"}, "confirm": {"Str0ng!pass"}}
	resp := ta.post(t, "/signup", "", form)
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("signup: %d %s", resp.StatusCode, body(t, resp))
	}
	sid := cookie(resp, "sid")
	u, err := ta.users.SessionUser(context.Background(), sid)
	if err != nil {
		t.Fatalf("session not bound: %v", err)
	}
	roles, _ := ta.users.Roles(context.Background(), u.ID)
	if len(roles) != 1 || roles[0] != domain.RolePublic {
		t.Fatalf("roles: %v", roles)
	}

	// A public user cannot reach the seller dashboard.
	if resp := ta.get(t, "/seller", sid); resp.StatusCode != http.StatusForbidden {
		t.Fatalf("public user on /seller: %d", resp.StatusCode)
	}

	if resp := ta.post(t, "/signup", "", form); resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate signup: %d", resp.StatusCode)
	}
	form.Set("confirm", "different")
	if resp := ta.post(t, "/signup", "", form); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("mismatched confirm: %d", resp.StatusCode)
	}
}

func TestMagicLinkSignIn(t *testing.T) {
	ta := newTestApp(t)

	resp := ta.post(t, "/magic-link", "", url.Values{"email": {"bob@pumarket.test"}})
	if resp.StatusCode != http.StatusOK || !strings.Contains(body(t, resp), "sign-in link is on its way") {
		t.Fatalf("request link: %d", resp.StatusCode)
	}
	link := ta.sender.link("bob@pumarket.test")
	if !strings.HasPrefix(link, "http://market.test/auth/magic?token=") {
		t.Fatalf("link %q", link)
	}
	path := strings.TrimPrefix(link, "http://market.test")

	resp = ta.get(t, path, "")
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("verify: %d", resp.StatusCode)
	}
	sid := cookie(resp, "sid")
	if u, err := ta.users.SessionUser(context.Background(), sid); err != nil || u.ID != "u-bob" {
		t.Fatalf("session: %+v %v", u, err)
	}

	if resp := ta.get(t, path, ""); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("reused link: %d", resp.StatusCode)
	}

	// Unknown emails get the same answer and no link.
	resp = ta.post(t, "/magic-link", "", url.Values{"email": {"ghost@pumarket.test"}})
	if resp.StatusCode != http.StatusOK || ta.sender.link("ghost@pumarket.test") != "" {
		t.Fatalf("unknown email: %d", resp.StatusCode)
	}
}

func TestMagicLinkThrottledPerEmail(t *testing.T) {
	ta := newTestApp(t)
	form := url.Values{"email": {"carol@pumarket.test"}}
	for i := 0; i < 3; i++ {
		if resp := ta.post(t, "/magic-link", "", form); resp.StatusCode != http.StatusOK {
			t.Fatalf("request %d: %d", i+1, resp.StatusCode)
		}
	}
	entries := captureLogs(t, func() {
		if resp := ta.post(t, "/magic-link", "", form); resp.StatusCode != http.StatusTooManyRequests {
			t.Fatalf("4th request: %d", resp.StatusCode)
		}
	})
	if _, ok := findLog(entries, "rate.magic_link.hit"); !ok {
		t.Fatal("expected rate.magic_link.hit log")
	}
}

func TestLogoutUnbindsSession(t *testing.T) {
	ta := newTestApp(t)
	sid := ta.session(t, "u-alice")

	if resp := ta.post(t, "/logout", sid, nil); resp.StatusCode != http.StatusFound {
		t.Fatalf("logout: %d", resp.StatusCode)
	}
	if resp := ta.get(t, "/seller", sid); resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != "/login" {
		t.Fatalf("after logout: %d %s", resp.StatusCode, resp.Header.Get("Location"))
	}
}
