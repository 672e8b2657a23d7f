package errcode

import "strings"

// rule maps free-text failure output to a code. Rules are evaluated in order
// and the first match wins, so more specific phrases must come first.
type rule struct {
	keywords []string
	code     Code
}

var rules = []rule{
	{[]string{"age-restricted", "age restricted", "confirm your age"}, AgeRestricted},
	{[]string{"login required", "log in to", "requires authentication", "sign in to confirm"}, CookieRequired},
	{[]string{"cookie expired", "session expired", "session invalid", "authentication expired"}, CookieExpired},
	{[]string{"invalid cookie", "invalid session", "unauthorized"}, CookieInvalid},
	{[]string{"verification required", "verify your account", "checkpoint_required", "challenge_required"}, VerificationRequired},
	{[]string{"private account", "private video", "this account is private", "is private"}, Private},
	{[]string{"has been deleted", "removed by the uploader", "video unavailable"}, Deleted},
	{[]string{"not found", "404", "does not exist", "page isn't available"}, NotFound},
	{[]string{"no media", "no video", "no downloadable"}, NoMedia},
	{[]string{"rate limit", "too many requests", "429"}, RateLimited},
	{[]string{"blocked", "access denied", "403", "forbidden"}, Blocked},
	{[]string{"timed out", "timeout", "deadline exceeded"}, Timeout},
	{[]string{"connection refused", "connection reset", "no such host", "network", "eof"}, NetworkError},
	{[]string{"parse", "unexpected token", "malformed response"}, ParseError},
	{[]string{"api error", "internal server error", "500", "502", "503"}, APIError},
}

// Detect maps a raw failure message to a code using the ordered keyword
// rules. Matching is best effort; anything unrecognized becomes Unknown.
func Detect(raw string) Code {
	if raw == "" {
		return Unknown
	}

	lower := strings.ToLower(raw)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				return r.code
			}
		}
	}

	return Unknown
}
