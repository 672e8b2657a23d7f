package pipeline

import (
	"net/url"
	"regexp"
	"strings"
)

// trackingParams are query parameters that only identify the share or the
// campaign, never the content. They are stripped during normalization.
var trackingParams = map[string]bool{
	"fbclid":     true,
	"gclid":      true,
	"dclid":      true,
	"igshid":     true,
	"igsh":       true,
	"si":         true,
	"mibextid":   true,
	"ref":        true,
	"ref_src":    true,
	"ref_url":    true,
	"share_id":   true,
	"sender_web_id": true,
	"is_from_webapp": true,
	"feature":    true,
	"s":          true,
	"t":          true,
}

var schemeRe = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*://`)

// trackingParamRe is the fallback for input that net/url refuses to parse.
var trackingParamRe = regexp.MustCompile(
	`(?i)[?&](utm_[a-z_]+|fbclid|gclid|dclid|igshid|igsh|si|mibextid|ref|ref_src|ref_url|share_id|sender_web_id|is_from_webapp|feature|s|t)=[^&#]*`)

// Normalize canonicalizes a raw URL: trims whitespace, defaults the scheme
// to https, rewrites known mobile/alternate hosts to their canonical form
// and strips tracking query parameters. Applying it twice yields the same
// result.
func Normalize(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return s
	}
	if !schemeRe.MatchString(s) {
		s = "https://" + s
	}

	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		// Malformed input still gets the targeted regex treatment.
		return stripTrackingFallback(s)
	}

	host := strings.ToLower(u.Host)
	if canonical, ok := canonicalHosts[host]; ok {
		host = canonical
	}
	u.Host = host

	if u.RawQuery != "" {
		kept := url.Values{}
		for key, vals := range u.Query() {
			if isTrackingParam(key) {
				continue
			}
			for _, v := range vals {
				kept.Add(key, v)
			}
		}
		u.RawQuery = kept.Encode()
	}

	u.Path = strings.TrimSuffix(u.Path, "/")

	return u.String()
}

func isTrackingParam(key string) bool {
	lower := strings.ToLower(key)
	if strings.HasPrefix(lower, "utm_") {
		return true
	}
	return trackingParams[lower]
}

func stripTrackingFallback(s string) string {
	s = trackingParamRe.ReplaceAllString(s, "")
	// Repair a query string whose first parameter was removed.
	if i := strings.Index(s, "&"); i >= 0 && !strings.Contains(s[:i], "?") {
		s = s[:i] + "?" + s[i+1:]
	}
	s = strings.TrimSuffix(s, "?")
	return s
}

func hostOf(rawURL string) string {
	s := rawURL
	if !schemeRe.MatchString(s) {
		s = "https://" + s
	}
	u, err := url.Parse(s)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Host)
	if i := strings.Index(host, ":"); i >= 0 {
		host = host[:i]
	}
	return host
}

func pathSegments(rawURL string) []string {
	s := rawURL
	if !schemeRe.MatchString(s) {
		s = "https://" + s
	}
	u, err := url.Parse(s)
	if err != nil {
		return nil
	}
	var segments []string
	for _, seg := range strings.Split(u.Path, "/") {
		if seg != "" {
			segments = append(segments, seg)
		}
	}
	return segments
}
