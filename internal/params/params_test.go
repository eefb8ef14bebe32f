package params

import (
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func TestResolvePrecedence(t *testing.T) {
	query := url.Values{"container": {"from-query"}}
	body := map[string]string{"container": "from-body"}

	if got := Resolve(query, body, "container", "fallback"); got != "from-query" {
		t.Errorf("expected query value to win, got %q", got)
	}
	if got := Resolve(url.Values{}, body, "container", "fallback"); got != "from-body" {
		t.Errorf("expected body value, got %q", got)
	}
	if got := Resolve(url.Values{}, nil, "container", "fallback"); got != "fallback" {
		t.Errorf("expected fallback, got %q", got)
	}
}

func TestResolveEmptyQueryValueFallsThrough(t *testing.T) {
	query := url.Values{"container": {""}}
	body := map[string]string{"container": "from-body"}

	if got := Resolve(query, body, "container", "fallback"); got != "from-body" {
		t.Errorf("empty query value should not shadow the body, got %q", got)
	}
}

func TestDecodeBodyValidObject(t *testing.T) {
	r := httptest.NewRequest("POST", "/api/style_images", strings.NewReader(`{"container":"photos","source_folder":"in"}`))

	body := DecodeBody(r)
	if body["container"] != "photos" {
		t.Errorf("expected container=photos, got %q", body["container"])
	}
	if body["source_folder"] != "in" {
		t.Errorf("expected source_folder=in, got %q", body["source_folder"])
	}
}

func TestDecodeBodyLenient(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"empty", ""},
		{"malformed", `{"container":`},
		{"wrong type", `[1,2,3]`},
		{"non-string field", `{"container": 42}`},
		{"null", `null`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/", strings.NewReader(tc.body))
			got := DecodeBody(r)
			if got == nil {
				t.Fatal("DecodeBody returned nil map")
			}
			if len(got) != 0 {
				t.Errorf("expected empty map, got %v", got)
			}
		})
	}
}
