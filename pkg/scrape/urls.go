package scrape

import (
	"net/url"
	"strings"
)

const siteURL = "https://www.linkedin.com"

// NormalizeFeedURL converts a profile or company URL to the page listing its posts
func NormalizeFeedURL(raw string) string {
	u := strings.TrimRight(strings.TrimSpace(raw), "/")
	switch {
	case strings.Contains(u, "/recent-activity"):
		if strings.HasSuffix(u, "/recent-activity/all") {
			return u + "/"
		}
		return strings.SplitN(u, "/recent-activity", 2)[0] + "/recent-activity/all/"
	case strings.Contains(u, "/company/"):
		if strings.Contains(u, "/admin/page-posts") {
			return u
		}
		id := strings.SplitN(strings.SplitN(u, "/company/", 2)[1], "/", 2)[0]
		return siteURL + "/company/" + id + "/posts/"
	default:
		return u + "/recent-activity/all/"
	}
}

// FeedSlug returns the profile or company identifier of a feed URL, empty if unknown
func FeedSlug(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := 0; i+1 < len(parts); i++ {
		if parts[i] == "in" || parts[i] == "company" {
			return parts[i+1]
		}
	}
	return ""
}

// stripQuery drops tracking parameters from profile links
func stripQuery(raw string) string {
	if i := strings.IndexAny(raw, "?#"); i >= 0 {
		return raw[:i]
	}
	return raw
}
