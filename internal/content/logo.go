package content

import (
	"strings"

	"summit/internal/backend"
)

// DefaultPlaceholder is shown when a record has no image.
const DefaultPlaceholder = "/placeholder.svg"

const sponsorLogoPrefix = backend.BucketSponsorImages + "/"

// LogoResolver turns stored logo values into displayable URLs.
type LogoResolver struct {
	// BaseURL is the storage host that bucket-relative paths are rewritten
	// against. Rewriting is skipped when it is empty.
	BaseURL     string
	Placeholder string
}

// Resolve maps value to a displayable URL:
// empty values become the placeholder, absolute URLs pass through,
// paths under the sponsor logo bucket are rewritten to their public URL,
// and anything else is returned unchanged.
func (r LogoResolver) Resolve(value string) string {
	if value == "" {
		if r.Placeholder != "" {
			return r.Placeholder
		}
		return DefaultPlaceholder
	}
	if strings.HasPrefix(value, "http") {
		return value
	}
	base := strings.TrimRight(r.BaseURL, "/")
	if base != "" && strings.HasPrefix(value, sponsorLogoPrefix) {
		return base + backend.PublicPathPrefix + value
	}
	return value
}

// ResolveLogoURL resolves value against base with the default placeholder.
func ResolveLogoURL(base, value string) string {
	return LogoResolver{BaseURL: base}.Resolve(value)
}

// HostedOn reports whether url points at the storage host base.
func HostedOn(base, url string) bool {
	base = strings.TrimRight(base, "/")
	return base != "" && strings.HasPrefix(url, base+"/")
}
