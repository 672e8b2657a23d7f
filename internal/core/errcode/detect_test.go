package errcode

import "testing"

func TestDetect(t *testing.T) {
	tests := []struct {
		raw    string
		expect Code
	}{
		{"ERROR: Sign in to confirm you're not a bot", CookieRequired},
		{"This video requires authentication", CookieRequired},
		{"session expired, please log in again", CookieExpired},
		{"HTTP Error 401: Unauthorized", CookieInvalid},
		{"checkpoint_required", VerificationRequired},
		{"This account is private", Private},
		{"Sorry, this video is age-restricted", AgeRestricted},
		{"This post has been deleted", Deleted},
		{"Video unavailable", Deleted},
		{"HTTP Error 404: Not Found", NotFound},
		{"Sorry, this page isn't available.", NotFound},
		{"no downloadable media found on page", NoMedia},
		{"HTTP Error 429: Too Many Requests", RateLimited},
		{"Access denied: your IP is blocked", Blocked},
		{"context deadline exceeded", Timeout},
		{"read tcp: connection reset by peer", NetworkError},
		{"dial tcp: no such host", NetworkError},
		{"unexpected token '<' in response", ParseError},
		{"HTTP Error 500: Internal Server Error", APIError},
		{"something inexplicable happened", Unknown},
		{"", Unknown},
	}

	for _, tt := range tests {
		if got := Detect(tt.raw); got != tt.expect {
			t.Errorf("Detect(%q) = %v, want %v", tt.raw, got, tt.expect)
		}
	}
}

func TestDetectOrdering(t *testing.T) {
	// A message matching both an auth rule and a content rule must resolve to
	// the more specific auth rule listed first.
	tests := []struct {
		raw    string
		expect Code
	}{
		{"age restricted video, log in to watch", AgeRestricted},
		{"login required: this account is private", CookieRequired},
	}

	for _, tt := range tests {
		if got := Detect(tt.raw); got != tt.expect {
			t.Errorf("Detect(%q) = %v, want %v", tt.raw, got, tt.expect)
		}
	}
}

func TestCodeFlags(t *testing.T) {
	retryable := []Code{Timeout, NetworkError, APIError}
	for _, c := range retryable {
		if !Retryable(c) {
			t.Errorf("Retryable(%v) = false, want true", c)
		}
	}

	terminal := []Code{InvalidURL, NotFound, Deleted, RateLimited, Blocked, Unknown}
	for _, c := range terminal {
		if Retryable(c) {
			t.Errorf("Retryable(%v) = true, want false", c)
		}
	}

	withCookie := []Code{CookieRequired, Private, AgeRestricted}
	for _, c := range withCookie {
		if !RetryWithCookie(c) {
			t.Errorf("RetryWithCookie(%v) = false, want true", c)
		}
		if !NeedsCookie(c) {
			t.Errorf("NeedsCookie(%v) = false, want true", c)
		}
	}

	// Expired and invalid sessions need a cookie but must not trigger an
	// escalated retry with the same broken credential class.
	for _, c := range []Code{CookieExpired, CookieInvalid} {
		if RetryWithCookie(c) {
			t.Errorf("RetryWithCookie(%v) = true, want false", c)
		}
		if !NeedsCookie(c) {
			t.Errorf("NeedsCookie(%v) = false, want true", c)
		}
	}
}

func TestLookupUnknownCode(t *testing.T) {
	m := Lookup(Code("NO_SUCH_CODE"))
	if m.Message != Lookup(Unknown).Message {
		t.Errorf("Lookup of unregistered code = %+v, want the Unknown entry", m)
	}
	if Message(Code("NO_SUCH_CODE")) == "" {
		t.Error("Message of unregistered code is empty, want fallback message")
	}
}
