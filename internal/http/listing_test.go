package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

type productsPayload struct {
	Count    int `json:"count"`
	Products []struct {
		ID          string `json:"id"`
		SellerEmail string `json:"seller_email"`
		Available   bool   `json:"is_available"`
		Likes       struct {
			Count int  `json:"count"`
			Liked bool `json:"liked"`
		} `json:"likes"`
	} `json:"products"`
}

func decodeProducts(t *testing.T, resp *http.Response) productsPayload {
	t.Helper()
	var out productsPayload
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode products: %v", err)
	}
	return out
}

func TestHomeListsSeededProducts(t *testing.T) {
	ta := newTestApp(t)
	resp := ta.get(t, "/", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("home: %d", resp.StatusCode)
	}
	page := body(t, resp)
	for _, title := range []string{"Physics Notes Sem 3", "Hero Sprint Cycle", "Electric Kettle 1.5L", "Welcome to PU-Marketplace"} {
		if !strings.Contains(page, title) {
			t.Errorf("home page missing %q", title)
		}
	}
}

func TestHomeRejectsBadFilter(t *testing.T) {
	ta := newTestApp(t)
	for _, path := range []string{"/?mode=cheapest", "/?category=Weapons"} {
		entries := captureLogs(t, func() {
			if resp := ta.get(t, path, ""); resp.StatusCode != http.StatusBadRequest {
				t.Errorf("%s: got %d", path, resp.StatusCode)
			}
		})
		if _, ok := findLog(entries, "validation.fail"); !ok {
			t.Errorf("%s: expected validation.fail log", path)
		}
	}
}

func TestAPIProductsFilters(t *testing.T) {
	ta := newTestApp(t)

	cases := []struct {
		path string
		want []string
	}{
		{"/api/v1/products?mode=sold", []string{"p-kettle"}},
		{"/api/v1/products?mode=available&category=Vehicle", []string{"p-cycle"}},
		{"/api/v1/products?q=NOTES", []string{"p-physics"}},
		{"/api/v1/products?mode=price-high-low", []string{"p-cycle", "p-kettle", "p-physics"}},
		{"/api/v1/products?mode=price-low-high", []string{"p-physics", "p-kettle", "p-cycle"}},
		{"/api/v1/products?q=drone", nil},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			resp := ta.get(t, tc.path, "")
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status %d", resp.StatusCode)
			}
			got := decodeProducts(t, resp)
			if got.Count != len(tc.want) || len(got.Products) != len(tc.want) {
				t.Fatalf("count = %d, want %d", got.Count, len(tc.want))
			}
			for i, id := range tc.want {
				if got.Products[i].ID != id {
					t.Errorf("products[%d] = %s, want %s", i, got.Products[i].ID, id)
				}
			}
		})
	}
}

func TestAPIProductsIncludesSeller(t *testing.T) {
	ta := newTestApp(t)
	got := decodeProducts(t, ta.get(t, "/api/v1/products?category=Vehicle", ""))
	if got.Count != 1 || got.Products[0].SellerEmail != "alice@pumarket.test" {
		t.Fatalf("unexpected payload %+v", got)
	}
}

func TestAPIBadFilterIsJSON400(t *testing.T) {
	ta := newTestApp(t)
	resp := ta.get(t, "/api/v1/products?mode=bogus", "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("content type %q", ct)
	}
}

func TestAPICORS(t *testing.T) {
	ta := newTestApp(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	req.Header.Set("Origin", "http://elsewhere.test")
	resp := ta.do(t, req, "")
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("Access-Control-Allow-Origin = %q", got)
	}
}

func TestAPIMissingProduct(t *testing.T) {
	ta := newTestApp(t)
	for _, path := range []string{"/api/v1/products/p-nope/likes", "/api/v1/products/p-nope/comments"} {
		if resp := ta.get(t, path, ""); resp.StatusCode != http.StatusNotFound {
			t.Errorf("%s: got %d", path, resp.StatusCode)
		}
	}
}

func TestProductDetail(t *testing.T) {
	ta := newTestApp(t)
	resp := ta.get(t, "/product/p-cycle", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("detail: %d", resp.StatusCode)
	}
	if page := body(t, resp); !strings.Contains(page, "Hero Sprint Cycle") || !strings.Contains(page, "alice@pumarket.test") {
		t.Fatal("detail page missing title or seller")
	}
	if resp := ta.get(t, "/product/p-nope", ""); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("missing product: %d", resp.StatusCode)
	}
}

func TestSearchAcceptsFreeText(t *testing.T) {
	ta := newTestApp(t)
	cases := []struct {
		q    string
		want int
	}{
		{"C++", 0},
		{"50% off", 0},
		{"notes (sem 3)", 0},
		{"all units", 1},
		{"moving out sale", 1},
	}
	for _, tc := range cases {
		t.Run(tc.q, func(t *testing.T) {
			v := url.Values{"q": {tc.q}}.Encode()
			if resp := ta.get(t, "/?"+v, ""); resp.StatusCode != http.StatusOK {
				t.Fatalf("home: %d", resp.StatusCode)
			}
			resp := ta.get(t, "/api/v1/products?"+v, "")
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("api: %d", resp.StatusCode)
			}
			if got := decodeProducts(t, resp); got.Count != tc.want {
				t.Fatalf("count = %d, want %d", got.Count, tc.want)
			}
		})
	}

	long := url.Values{"q": {strings.Repeat("x", 101)}}.Encode()
	if resp := ta.get(t, "/api/v1/products?"+long, ""); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("over-long query: %d", resp.StatusCode)
	}
}
