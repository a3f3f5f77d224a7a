package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func TestPanicRendersGenericPage(t *testing.T) {
	ta := newTestApp(t)
	var resp *http.Response
	entries := captureLogs(t, func() { resp = ta.get(t, "/boom", "") })
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status %d", resp.StatusCode)
	}
	page := body(t, resp)
	if !strings.Contains(page, "Something went wrong") {
		t.Fatal("friendly message missing")
	}
	if strings.Contains(page, "secret") || strings.Contains(page, "db timeout") {
		t.Fatal("internal detail leaked into the page")
	}
	if e, ok := findLog(entries, "server.error"); !ok || e.Level != "error" {
		t.Fatalf("expected server.error log, got %+v", entries)
	}
}

func TestUnknownRouteIs404(t *testing.T) {
	ta := newTestApp(t)
	resp := ta.get(t, "/no/such/page", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status %d", resp.StatusCode)
	}
	if !strings.Contains(body(t, resp), "Page not found") {
		t.Fatal("404 page missing message")
	}
}

func TestPostWithoutCSRFIsRejected(t *testing.T) {
	ta := newTestApp(t)
	bob := ta.session(t, "u-bob")
	req := httptest.NewRequest(http.MethodPost, "/product/p-cycle/like", strings.NewReader(""))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp := ta.do(t, req, bob)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("status %d", resp.StatusCode)
	}
	if st := likeState(t, ta, "p-cycle", bob); st.Count != 0 {
		t.Fatalf("like recorded without csrf: %+v", st)
	}
}

func TestThemeToggle(t *testing.T) {
	ta := newTestApp(t)
	resp := ta.post(t, "/theme", "", url.Values{})
	if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != "/" {
		t.Fatalf("theme: %d %s", resp.StatusCode, resp.Header.Get("Location"))
	}
	if got := cookie(resp, "theme"); got != "dark" {
		t.Fatalf("theme cookie = %q", got)
	}

	req := httptest.NewRequest(http.MethodPost, "/theme", strings.NewReader(url.Values{"csrf": {ta.csrf}}.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Referer", "http://example.com/product/p-cycle")
	req.AddCookie(&http.Cookie{Name: "theme", Value: "dark"})
	resp = ta.do(t, req, "")
	if got := cookie(resp, "theme"); got != "light" {
		t.Fatalf("second toggle = %q", got)
	}
	if loc := resp.Header.Get("Location"); loc != "/product/p-cycle" {
		t.Fatalf("same-host referer redirect = %q", loc)
	}
}
