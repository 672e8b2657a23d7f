package pipeline

import (
	"regexp"
	"strings"

	"github.com/vietddude/extractor/internal/core/domain"
)

// Per-platform dispatch tables. Adding a platform means adding rows here,
// not branching logic elsewhere in the pipeline.

// canonicalHosts rewrites mobile and alternate hosts to their canonical form.
var canonicalHosts = map[string]string{
	"m.facebook.com":      "www.facebook.com",
	"mbasic.facebook.com": "www.facebook.com",
	"web.facebook.com":    "www.facebook.com",
	"fb.com":              "www.facebook.com",
	"www.fb.com":          "www.facebook.com",
	"m.instagram.com":     "www.instagram.com",
	"instagram.com":       "www.instagram.com",
	"x.com":               "twitter.com",
	"www.x.com":           "twitter.com",
	"mobile.twitter.com":  "twitter.com",
	"www.twitter.com":     "twitter.com",
	"m.tiktok.com":        "www.tiktok.com",
	"tiktok.com":          "www.tiktok.com",
	"m.youtube.com":       "www.youtube.com",
	"music.youtube.com":   "www.youtube.com",
	"youtube.com":         "www.youtube.com",
	"old.reddit.com":      "www.reddit.com",
	"m.reddit.com":        "www.reddit.com",
	"new.reddit.com":      "www.reddit.com",
	"reddit.com":          "www.reddit.com",
}

// platformHosts maps host suffixes to the platform they belong to.
// Longer suffixes are checked first so "vm.tiktok.com" wins over "tiktok.com".
var platformHosts = []struct {
	suffix   string
	platform domain.Platform
}{
	{"instagram.com", domain.PlatformInstagram},
	{"instagr.am", domain.PlatformInstagram},
	{"facebook.com", domain.PlatformFacebook},
	{"fb.watch", domain.PlatformFacebook},
	{"fb.me", domain.PlatformFacebook},
	{"fb.com", domain.PlatformFacebook},
	{"twitter.com", domain.PlatformTwitter},
	{"x.com", domain.PlatformTwitter},
	{"t.co", domain.PlatformTwitter},
	{"tiktok.com", domain.PlatformTikTok},
	{"youtube.com", domain.PlatformYouTube},
	{"youtu.be", domain.PlatformYouTube},
	{"reddit.com", domain.PlatformReddit},
	{"redd.it", domain.PlatformReddit},
}

// shortLinkHosts lists the hosts that are known to be redirect shorteners,
// per platform. URLs on these hosts need resolution before classification.
var shortLinkHosts = map[domain.Platform][]string{
	domain.PlatformInstagram: {"instagr.am"},
	domain.PlatformFacebook:  {"fb.watch", "fb.me"},
	domain.PlatformTwitter:   {"t.co"},
	domain.PlatformTikTok:    {"vm.tiktok.com", "vt.tiktok.com"},
	domain.PlatformYouTube:   {"youtu.be"},
	domain.PlatformReddit:    {"redd.it", "v.redd.it"},
}

// genericShorteners are platform-agnostic shorteners; they only matter when
// the platform is still unknown.
var genericShorteners = []string{
	"bit.ly", "tinyurl.com", "is.gd", "buff.ly", "t.ly", "rb.gy",
}

// contentIDPatterns extracts the content identifier from a normalized URL.
// Patterns are tried in order; the first capture group of the first match
// wins. No match is non-fatal.
var contentIDPatterns = map[domain.Platform][]*regexp.Regexp{
	domain.PlatformInstagram: {
		regexp.MustCompile(`/(?:reels?|p|tv)/([A-Za-z0-9_-]+)`),
		regexp.MustCompile(`/stories/[^/]+/(\d+)`),
	},
	domain.PlatformFacebook: {
		regexp.MustCompile(`/videos?/(\d+)`),
		regexp.MustCompile(`/reel/(\d+)`),
		regexp.MustCompile(`[?&]v=(\d+)`),
		regexp.MustCompile(`/stories/(\d+)`),
		regexp.MustCompile(`/posts/(pfbid[A-Za-z0-9]+|\d+)`),
		regexp.MustCompile(`fbid=(\d+)`),
	},
	domain.PlatformTwitter: {
		regexp.MustCompile(`/status(?:es)?/(\d+)`),
	},
	domain.PlatformTikTok: {
		regexp.MustCompile(`/video/(\d+)`),
		regexp.MustCompile(`/photo/(\d+)`),
	},
	domain.PlatformYouTube: {
		regexp.MustCompile(`[?&]v=([A-Za-z0-9_-]{11})`),
		regexp.MustCompile(`/shorts/([A-Za-z0-9_-]{11})`),
		regexp.MustCompile(`/embed/([A-Za-z0-9_-]{11})`),
		regexp.MustCompile(`youtu\.be/([A-Za-z0-9_-]{11})`),
	},
	domain.PlatformReddit: {
		regexp.MustCompile(`/comments/([a-z0-9]+)`),
	},
}

// contentTypeSegments classifies content by the first matching path segment.
var contentTypeSegments = map[domain.Platform]map[string]domain.ContentType{
	domain.PlatformInstagram: {
		"reel":    domain.ContentReel,
		"reels":   domain.ContentReel,
		"stories": domain.ContentStory,
		"tv":      domain.ContentVideo,
		"p":       domain.ContentPost,
	},
	domain.PlatformFacebook: {
		"video":   domain.ContentVideo,
		"videos":  domain.ContentVideo,
		"watch":   domain.ContentVideo,
		"reel":    domain.ContentReel,
		"stories": domain.ContentStory,
		"posts":   domain.ContentPost,
		"photo":   domain.ContentImage,
		"photos":  domain.ContentImage,
	},
	domain.PlatformTwitter: {
		"status":   domain.ContentPost,
		"statuses": domain.ContentPost,
	},
	domain.PlatformTikTok: {
		"video": domain.ContentVideo,
		"photo": domain.ContentImage,
	},
	domain.PlatformYouTube: {
		"watch":  domain.ContentVideo,
		"shorts": domain.ContentVideo,
		"embed":  domain.ContentVideo,
	},
	domain.PlatformReddit: {
		"comments": domain.ContentPost,
	},
}

// cookieAlways marks platforms that need a credential for any content.
var cookieAlways = map[domain.Platform]bool{
	domain.PlatformInstagram: true,
}

// cookieSegments marks path segments that need a credential on an otherwise
// open platform.
var cookieSegments = map[domain.Platform][]string{
	domain.PlatformFacebook: {"stories", "groups"},
}

// DetectPlatform returns the platform a URL belongs to, or "" when the host
// matches no known platform.
func DetectPlatform(rawURL string) domain.Platform {
	host := hostOf(rawURL)
	if host == "" {
		return ""
	}
	for _, entry := range platformHosts {
		if host == entry.suffix || strings.HasSuffix(host, "."+entry.suffix) {
			return entry.platform
		}
	}
	return ""
}

// NeedsResolve reports whether the URL sits on a known short-link host.
// With an unknown platform the union of all tables plus generic shorteners
// is consulted.
func NeedsResolve(rawURL string, platform domain.Platform) bool {
	host := hostOf(rawURL)
	if host == "" {
		return false
	}

	match := func(hosts []string) bool {
		for _, h := range hosts {
			if host == h || strings.HasSuffix(host, "."+h) {
				return true
			}
		}
		return false
	}

	if platform != "" {
		return match(shortLinkHosts[platform])
	}
	for _, hosts := range shortLinkHosts {
		if match(hosts) {
			return true
		}
	}
	return match(genericShorteners)
}

// ExtractContentID runs the platform's ordered pattern list over the URL.
func ExtractContentID(rawURL string, platform domain.Platform) string {
	for _, re := range contentIDPatterns[platform] {
		if m := re.FindStringSubmatch(rawURL); m != nil {
			return m[1]
		}
	}
	return ""
}

// ClassifyContent determines the content type from the URL path segments.
func ClassifyContent(rawURL string, platform domain.Platform) domain.ContentType {
	table := contentTypeSegments[platform]
	if table == nil {
		return domain.ContentUnknown
	}
	for _, seg := range pathSegments(rawURL) {
		if ct, ok := table[seg]; ok {
			return ct
		}
	}
	return domain.ContentUnknown
}

// MayRequireCookie reports whether the content may need a credential.
func MayRequireCookie(rawURL string, platform domain.Platform) bool {
	if cookieAlways[platform] {
		return true
	}
	for _, want := range cookieSegments[platform] {
		for _, seg := range pathSegments(rawURL) {
			if seg == want {
				return true
			}
		}
	}
	return false
}
