package domain

import "github.com/vietddude/extractor/internal/core/errcode"

// Assessment is the pipeline's verdict on a prepared URL.
type Assessment struct {
	IsValid          bool         `json:"isValid"`
	MayRequireCookie bool         `json:"mayRequireCookie"`
	ErrorCode        errcode.Code `json:"errorCode,omitempty"`
	ErrorMessage     string       `json:"errorMessage,omitempty"`
}

// URLInfo is the result of running a raw URL through the preparation
// pipeline: normalization, optional redirect resolution, platform and
// content classification.
//
// CacheKey is non-empty only when a content id was extracted; its format is
// "platform:contentId".
type URLInfo struct {
	InputURL      string      `json:"inputUrl"`
	NormalizedURL string      `json:"normalizedUrl"`
	ResolvedURL   string      `json:"resolvedUrl"`
	Platform      Platform    `json:"platform,omitempty"`
	ContentType   ContentType `json:"contentType"`
	ContentID     string      `json:"contentId,omitempty"`
	WasResolved   bool        `json:"wasResolved"`
	RedirectChain []string    `json:"redirectChain,omitempty"`
	Assessment    Assessment  `json:"assessment"`
	CacheKey      string      `json:"cacheKey,omitempty"`
}
