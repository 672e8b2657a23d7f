// Package errcode defines the canonical failure codes shared by the URL
// pipeline, the credential pool and the retry orchestrator.
//
// Codes are grouped into URL, authentication, content, network and platform
// errors plus a generic fallback. Each code carries flags describing how the
// orchestrator should react to it.
package errcode

// Code is a stable, machine-readable failure code.
type Code string

const (
	// URL errors
	InvalidURL          Code = "INVALID_URL"
	UnsupportedPlatform Code = "UNSUPPORTED_PLATFORM"

	// Authentication errors
	CookieRequired Code = "COOKIE_REQUIRED"
	CookieExpired  Code = "COOKIE_EXPIRED"
	CookieInvalid  Code = "COOKIE_INVALID"

	// Content errors
	NotFound      Code = "NOT_FOUND"
	Private       Code = "PRIVATE"
	AgeRestricted Code = "AGE_RESTRICTED"
	Deleted       Code = "DELETED"
	NoMedia       Code = "NO_MEDIA"

	// Network errors
	Timeout      Code = "TIMEOUT"
	RateLimited  Code = "RATE_LIMITED"
	Blocked      Code = "BLOCKED"
	NetworkError Code = "NETWORK_ERROR"

	// Platform errors
	APIError             Code = "API_ERROR"
	ParseError           Code = "PARSE_ERROR"
	VerificationRequired Code = "VERIFICATION_REQUIRED"

	// Fallback
	Unknown Code = "UNKNOWN"
)

// Meta describes how a code should be presented and handled.
type Meta struct {
	Message         string // default user-facing message
	Retryable       bool   // retry unconditionally up to the attempt budget
	NeedsCookie     bool   // the failure indicates a credential is required
	RetryWithCookie bool   // retry once more with a credential attached
}

var meta = map[Code]Meta{
	InvalidURL:          {Message: "The URL is empty or malformed"},
	UnsupportedPlatform: {Message: "This site is not supported"},

	CookieRequired: {Message: "This content requires a logged-in session", NeedsCookie: true, RetryWithCookie: true},
	CookieExpired:  {Message: "The stored session has expired", NeedsCookie: true},
	CookieInvalid:  {Message: "The stored session was rejected", NeedsCookie: true},

	NotFound:      {Message: "Content not found"},
	Private:       {Message: "This content is private", NeedsCookie: true, RetryWithCookie: true},
	AgeRestricted: {Message: "This content is age-restricted", NeedsCookie: true, RetryWithCookie: true},
	Deleted:       {Message: "This content has been deleted"},
	NoMedia:       {Message: "No downloadable media found"},

	Timeout:      {Message: "The request timed out", Retryable: true},
	RateLimited:  {Message: "Too many requests, slow down"},
	Blocked:      {Message: "Access blocked by the platform"},
	NetworkError: {Message: "A network error occurred", Retryable: true},

	APIError:             {Message: "The platform API returned an error", Retryable: true},
	ParseError:           {Message: "Could not parse the platform response"},
	VerificationRequired: {Message: "The platform is asking for verification"},

	Unknown: {Message: "Something went wrong"},
}

// Lookup returns the metadata for a code. Unknown codes fall back to the
// generic entry so callers never have to handle a missing table row.
func Lookup(c Code) Meta {
	if m, ok := meta[c]; ok {
		return m
	}
	return meta[Unknown]
}

// Message returns the default user-facing message for a code.
func Message(c Code) string {
	return Lookup(c).Message
}

// Retryable reports whether a failure with this code should be retried
// without changing anything about the request.
func Retryable(c Code) bool {
	return Lookup(c).Retryable
}

// RetryWithCookie reports whether a failure with this code may succeed when
// retried with a credential attached.
func RetryWithCookie(c Code) bool {
	return Lookup(c).RetryWithCookie
}

// NeedsCookie reports whether the failure indicates missing authentication.
func NeedsCookie(c Code) bool {
	return Lookup(c).NeedsCookie
}
