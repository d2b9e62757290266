package pipeline

import (
	"net/url"
	"regexp"
	"strings"
)

const (
	platformHost  = "youtube.com"
	mobileHost    = "m.youtube.com"
	shortLinkHost = "youtu.be"

	// WatchURLPrefix is the canonical watch URL without the content id.
	WatchURLPrefix = "https://www.youtube.com/watch?v="
)

var livePathPattern = regexp.MustCompile(`^/live/([A-Za-z0-9_-]{5,})`)

// Resolve turns a candidate URL into a canonical reference. It fails with
// KindUnsupportedContentType for shorts and KindInvalidReference for anything
// else that does not address a single video.
func Resolve(rawURL string) (CanonicalReference, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return CanonicalReference{}, newError(KindInvalidReference, "Invalid YouTube URL.", err)
	}

	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	switch host {
	case platformHost, mobileHost, shortLinkHost:
	default:
		return CanonicalReference{}, newError(KindInvalidReference, "Only YouTube URLs are allowed.", nil)
	}

	var id string
	path := u.Path
	if host == shortLinkHost {
		id = strings.Split(strings.Trim(path, "/"), "/")[0]
	} else {
		if strings.HasPrefix(strings.ToLower(path), "/shorts/") {
			return CanonicalReference{}, newError(KindUnsupportedContentType, "YouTube Shorts are not supported.", nil)
		}
		if m := livePathPattern.FindStringSubmatch(path); m != nil {
			id = m[1]
		} else {
			id = u.Query().Get("v")
		}
	}

	if id == "" {
		return CanonicalReference{}, newError(KindInvalidReference, "Invalid YouTube URL.", nil)
	}

	return CanonicalReference{
		ContentID:    id,
		CanonicalURL: WatchURLPrefix + url.QueryEscape(id),
	}, nil
}

// IsPlatformURL reports whether rawURL points at a supported host. It does
// not check that the URL addresses a single video.
func IsPlatformURL(rawURL string) bool {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	return host == shortLinkHost || host == platformHost || strings.HasSuffix(host, "."+platformHost)
}
