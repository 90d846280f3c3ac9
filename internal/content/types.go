// Package content holds the site's records and the read-side operations the
// public pages and the admin lists are rendered from.
package content

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"summit/internal/jsonx"
)

// ID is a row id. Backends may hand out text or numeric ids; both decode here.
type ID string

// UnmarshalJSON accepts JSON strings and numbers.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := jsonx.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n jsonx.Number
	if err := jsonx.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("decode id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string {
	return string(id)
}

// Speaker is a summit speaker.
type Speaker struct {
	ID        ID     `json:"id"`
	Name      string `json:"name"`
	Title     string `json:"title"`
	Company   string `json:"company,omitempty"`
	Bio       string `json:"bio,omitempty"`
	ImageURL  string `json:"image_url"`
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// Sponsor is a summit sponsor.
type Sponsor struct {
	ID           ID     `json:"id"`
	Name         string `json:"name"`
	LogoURL      string `json:"logo_url"`
	Website      string `json:"website"`
	Tier         Tier   `json:"tier"`
	Description  string `json:"description"`
	ContactEmail string `json:"contact_email"`
	CreatedAt    string `json:"created_at,omitempty"`
}

// BlogPost is a post shown on the blog page. Posts are authored outside the site.
type BlogPost struct {
	ID               ID     `json:"id"`
	Title            string `json:"title"`
	Slug             string `json:"slug"`
	Excerpt          string `json:"excerpt"`
	FeaturedImageURL string `json:"featured_image_url"`
	CreatedAt        string `json:"created_at"`
	Published        bool   `json:"published"`
}

// Tier is a sponsorship level.
type Tier string

const (
	TierBronze   Tier = "bronze"
	TierSilver   Tier = "silver"
	TierGold     Tier = "gold"
	TierPlatinum Tier = "platinum"
)

// DefaultTier is preselected on new sponsor drafts.
const DefaultTier = TierSilver

// ErrUnknownTier is returned by ParseTier for values outside the four levels.
var ErrUnknownTier = errors.New("unknown sponsorship tier")

// Tiers lists the levels from highest to lowest.
func Tiers() []Tier {
	return []Tier{TierPlatinum, TierGold, TierSilver, TierBronze}
}

// ParseTier normalises s into a Tier. Matching ignores case and surrounding space.
func ParseTier(s string) (Tier, error) {
	t := Tier(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownTier, s)
	}
	return t, nil
}

// Valid reports whether t is one of the four levels.
func (t Tier) Valid() bool {
	switch t {
	case TierBronze, TierSilver, TierGold, TierPlatinum:
		return true
	}
	return false
}

// Label is the display name, e.g. "Gold". Unknown tiers are shown verbatim.
func (t Tier) Label() string {
	if !t.Valid() || t == "" {
		return string(t)
	}
	return strings.ToUpper(string(t[:1])) + string(t[1:])
}

// TierPackage is the public copy describing one sponsorship level.
type TierPackage struct {
	Tier     Tier
	Price    string
	Benefits []string
}

// Name is the package heading.
func (p TierPackage) Name() string {
	return p.Tier.Label()
}

// TierPackages returns the sponsorship packages, highest first.
func TierPackages() []TierPackage {
	return []TierPackage{
		{
			Tier:  TierPlatinum,
			Price: "₦5,000,000",
			Benefits: []string{
				"Logo on all marketing materials",
				"Speaking slot at summit",
				"Booth at event",
				"10 VIP tickets",
				"Social media promotion",
				"Exclusive networking dinner",
			},
		},
		{
			Tier:  TierGold,
			Price: "₦2,500,000",
			Benefits: []string{
				"Logo on marketing materials",
				"Booth at event",
				"6 VIP tickets",
				"Social media mentions",
				"Networking opportunities",
			},
		},
		{
			Tier:     TierSilver,
			Price:    "₦1,000,000",
			Benefits: []string{"Logo on website", "Booth at event", "4 standard tickets", "Event program mention"},
		},
		{
			Tier:     TierBronze,
			Price:    "₦500,000",
			Benefits: []string{"Logo on website", "2 standard tickets", "Event program mention"},
		},
	}
}
