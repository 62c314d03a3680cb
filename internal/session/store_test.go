package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/theinsider/membership-service/internal/domain"
)

func sampleSession(expiresAt int64) domain.SubscriberSession {
	return domain.SubscriberSession{
		CustomerID:     "cus_123",
		Email:          "reader@example.com",
		SubscriptionID: "sub_456",
		Status:         "active",
		ExpiresAt:      expiresAt,
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	for _, tc := range []struct {
		name   string
		secret string
	}{
		{name: "plain", secret: ""},
		{name: "signed", secret: "0123456789abcdef0123456789abcdef"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			store := NewStore(tc.secret, false)
			want := sampleSession(time.Now().Add(time.Hour).UnixMilli())

			value, err := store.Encode(want)
			if err != nil {
				t.Fatalf("Encode returned error: %v", err)
			}

			got := store.Decode(value)
			if got == nil {
				t.Fatal("Decode returned nil for a value it produced")
			}
			if *got != want {
				t.Fatalf("round trip mismatch: got %+v, want %+v", *got, want)
			}
		})
	}
}

func TestDecodeGarbageReturnsNil(t *testing.T) {
	for _, tc := range []struct {
		name   string
		secret string
		value  string
	}{
		{name: "plain not base64", secret: "", value: "not base64 at all"},
		{name: "plain empty", secret: "", value: ""},
		{name: "plain truncated json", secret: "", value: "eyJjdXN0b21lcklkIjoiY3VzXw"},
		{name: "signed garbage", secret: "0123456789abcdef0123456789abcdef", value: "bm90IGEgc2lnbmVkIGNvb2tpZQ"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			store := NewStore(tc.secret, false)
			if got := store.Decode(tc.value); got != nil {
				t.Fatalf("expected nil for garbage value, got %+v", *got)
			}
		})
	}
}

func TestDecodeRejectsTamperedSignedValue(t *testing.T) {
	store := NewStore("0123456789abcdef0123456789abcdef", false)
	value, err := store.Encode(sampleSession(0))
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}

	first := byte('A')
	if value[0] == first {
		first = 'B'
	}
	tampered := string(first) + value[1:]
	if got := store.Decode(tampered); got != nil {
		t.Fatalf("expected nil for tampered value, got %+v", *got)
	}
}

func TestPlainAndSignedStoresAreNotInterchangeable(t *testing.T) {
	plain := NewStore("", false)
	signed := NewStore("0123456789abcdef0123456789abcdef", false)

	value, err := plain.Encode(sampleSession(0))
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	if got := signed.Decode(value); got != nil {
		t.Fatalf("signed store accepted an unsigned value: %+v", *got)
	}
}

func requestWithCookie(t *testing.T, store *Store, sess domain.SubscriberSession) *http.Request {
	t.Helper()
	value, err := store.Encode(sess)
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: CookieName, Value: value})
	return r
}

func TestReadReturnsNilForExpiredSession(t *testing.T) {
	store := NewStore("", false)
	r := requestWithCookie(t, store, sampleSession(time.Now().Add(-time.Minute).UnixMilli()))

	if got := store.Read(r); got != nil {
		t.Fatalf("expected nil for expired session, got %+v", *got)
	}
}

func TestReadReturnsSessionWithNoLocalExpiry(t *testing.T) {
	store := NewStore("", false)
	r := requestWithCookie(t, store, sampleSession(0))

	if got := store.Read(r); got == nil {
		t.Fatal("expected session with zero expiresAt to be returned")
	}
}

func TestReadReturnsNilWithoutCookie(t *testing.T) {
	store := NewStore("", false)
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := store.Read(r); got != nil {
		t.Fatalf("expected nil without a cookie, got %+v", *got)
	}
}

func TestWriteSetsCookieOptions(t *testing.T) {
	store := NewStore("", true)
	w := httptest.NewRecorder()

	if err := store.Write(w, sampleSession(0)); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}

	cookies := w.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected 1 cookie, got %d", len(cookies))
	}
	c := cookies[0]
	if c.Name != "subscriber_session" {
		t.Fatalf("unexpected cookie name %q", c.Name)
	}
	if !c.HttpOnly {
		t.Fatal("cookie must be httpOnly")
	}
	if !c.Secure {
		t.Fatal("cookie must be secure when the store is secure")
	}
	if c.SameSite != http.SameSiteLaxMode {
		t.Fatalf("expected SameSite=Lax, got %v", c.SameSite)
	}
	if c.Path != "/" {
		t.Fatalf("expected root path, got %q", c.Path)
	}
	if c.MaxAge != 60*60*24*30 {
		t.Fatalf("expected 30-day max age, got %d", c.MaxAge)
	}
}

func TestClearExpiresCookie(t *testing.T) {
	store := NewStore("", false)
	w := httptest.NewRecorder()
	store.Clear(w)

	cookies := w.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected 1 cookie, got %d", len(cookies))
	}
	if cookies[0].MaxAge >= 0 {
		t.Fatalf("expected negative max age, got %d", cookies[0].MaxAge)
	}
	if cookies[0].Value != "" {
		t.Fatalf("expected empty value, got %q", cookies[0].Value)
	}
}
