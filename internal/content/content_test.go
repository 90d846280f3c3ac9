package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveLogoURL(t *testing.T) {
	tests := []struct {
		name  string
		base  string
		value string
		want  string
	}{
		{name: "empty", base: "https://base", value: "", want: "/placeholder.svg"},
		{name: "absolute", base: "https://base", value: "https://cdn.example/x.png", want: "https://cdn.example/x.png"},
		{name: "bucket relative", base: "https://base", value: "sponsor-images/foo.png", want: "https://base/storage/v1/object/public/sponsor-images/foo.png"},
		{name: "trailing slash on base", base: "https://base/", value: "sponsor-images/foo.png", want: "https://base/storage/v1/object/public/sponsor-images/foo.png"},
		{name: "no known prefix", base: "https://base", value: "foo.png", want: "foo.png"},
		{name: "other bucket", base: "https://base", value: "speaker-images/a.png", want: "speaker-images/a.png"},
		{name: "no base configured", base: "", value: "sponsor-images/foo.png", want: "sponsor-images/foo.png"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveLogoURL(tt.base, tt.value))
		})
	}
}

func TestLogoResolverCustomPlaceholder(t *testing.T) {
	r := LogoResolver{Placeholder: "/static/none.svg"}
	assert.Equal(t, "/static/none.svg", r.Resolve(""))
}

func TestHostedOn(t *testing.T) {
	assert.True(t, HostedOn("https://proj.example.co", "https://proj.example.co/storage/v1/object/public/sponsor-images/a.png"))
	assert.False(t, HostedOn("https://proj.example.co", "https://elsewhere.example/a.png"))
	assert.False(t, HostedOn("", "https://elsewhere.example/a.png"))
}

func TestParseTier(t *testing.T) {
	tier, err := ParseTier(" Gold ")
	require.NoError(t, err)
	assert.Equal(t, TierGold, tier)
	assert.Equal(t, "Gold", tier.Label())

	_, err = ParseTier("diamond")
	assert.ErrorIs(t, err, ErrUnknownTier)
	assert.Equal(t, "diamond", Tier("diamond").Label())
}

func TestTierPackagesHighestFirst(t *testing.T) {
	packages := TierPackages()
	require.Len(t, packages, 4)
	assert.Equal(t, "Platinum", packages[0].Name())
	assert.Equal(t, "₦5,000,000", packages[0].Price)
	assert.Equal(t, "Bronze", packages[3].Name())
	assert.Equal(t, "₦500,000", packages[3].Price)
	for i, tier := range Tiers() {
		assert.Equal(t, tier, packages[i].Tier)
	}
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "March 4, 2025", FormatDate("2025-03-04T10:00:00.000000Z"))
	assert.Equal(t, "March 4, 2025", FormatDate("2025-03-04T10:00:00.123+01:00"))
	assert.Equal(t, "March 4, 2025", FormatDate("2025-03-04 10:00:00"))
	assert.Equal(t, "not a date", FormatDate("not a date"))
}

func TestEstimateReadTime(t *testing.T) {
	assert.Equal(t, 1, EstimateReadTime(""))
	assert.Equal(t, 1, EstimateReadTime("a few words"))

	words := make([]byte, 0, 201*2)
	for i := 0; i < 201; i++ {
		words = append(words, 'w', ' ')
	}
	assert.Equal(t, 2, EstimateReadTime(string(words)))
}

func TestListingState(t *testing.T) {
	assert.Equal(t, ListingEmpty, newListing([]int{}, nil).State)
	assert.Equal(t, ListingPopulated, newListing([]int{1}, nil).State)
	var zero Listing[int]
	assert.NotNil(t, zero.OrEmpty())
	assert.Equal(t, "fetch_failed", ListingFetchFailed.String())
}
