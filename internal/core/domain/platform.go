package domain

// Platform identifies a supported social-media site.
type Platform string

const (
	PlatformInstagram Platform = "instagram"
	PlatformFacebook  Platform = "facebook"
	PlatformTwitter   Platform = "twitter"
	PlatformTikTok    Platform = "tiktok"
	PlatformYouTube   Platform = "youtube"
	PlatformReddit    Platform = "reddit"
)

// AllPlatforms lists every supported platform.
var AllPlatforms = []Platform{
	PlatformInstagram,
	PlatformFacebook,
	PlatformTwitter,
	PlatformTikTok,
	PlatformYouTube,
	PlatformReddit,
}

// Valid reports whether p is a known platform.
func (p Platform) Valid() bool {
	for _, known := range AllPlatforms {
		if p == known {
			return true
		}
	}
	return false
}

// ContentType classifies what kind of media a URL points at.
type ContentType string

const (
	ContentVideo   ContentType = "video"
	ContentReel    ContentType = "reel"
	ContentStory   ContentType = "story"
	ContentPost    ContentType = "post"
	ContentImage   ContentType = "image"
	ContentUnknown ContentType = "unknown"
)
