package profile_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/synvya/merchant-connect/internal/api"
	"github.com/synvya/merchant-connect/internal/profile"
)

func s(v string) *string { return &v }

func TestFromMerchant(t *testing.T) {
	t.Run("full document", func(t *testing.T) {
		p, missing := profile.FromMerchant(api.MerchantProfile{
			Name:        s("Corner Shop"),
			DisplayName: s("The Corner Shop"),
			About:       s("Fresh bread daily"),
			Picture:     s("https://img/p.png"),
			Banner:      s("https://img/b.png"),
			Website:     s("https://corner.shop"),
			Hashtags:    api.StringList{"retail", "food "},
			ProfileType: s("restaurant"),
			PublicKey:   s("npub1abc"),
		})
		assert.Empty(t, missing)
		assert.Equal(t, "Corner Shop", p.Name)
		assert.Equal(t, "The Corner Shop", p.DisplayName)
		assert.Equal(t, "https://img/p.png", p.PictureURL)
		assert.Equal(t, "https://img/b.png", p.BannerURL)
		assert.Equal(t, "retail, food", p.Categories)
		assert.Equal(t, "restaurant", p.BusinessType)
		assert.Equal(t, "npub1abc", p.PublicKey)
		assert.Empty(t, p.PictureFile)
	})

	t.Run("empty document degrades to defaults", func(t *testing.T) {
		p, missing := profile.FromMerchant(api.MerchantProfile{})
		assert.Equal(t, profile.Default(), p)
		assert.ElementsMatch(t, []string{"name", "display_name", "about", "website", "hashtags", "public_key"}, missing)
	})
}

func TestPublicKey_FallsBackToHandle(t *testing.T) {
	assert.Equal(t, "npub1xyz", profile.PublicKey(api.MerchantProfile{NIP05: s("npub1xyz@synvya.com")}))
	assert.Equal(t, "npub1dedicated", profile.PublicKey(api.MerchantProfile{PublicKey: s("npub1dedicated"), NIP05: s("other@synvya.com")}))
	assert.Equal(t, "plain", profile.PublicKey(api.MerchantProfile{PublicKey: s(""), NIP05: s("plain")}))
	assert.Empty(t, profile.PublicKey(api.MerchantProfile{}))
}

func TestToMerchant(t *testing.T) {
	p := profile.Default()
	p.Name = "Corner Shop"
	p.DisplayName = "The Corner Shop"
	p.About = "Fresh bread"
	p.Website = "https://corner.shop"
	p.Categories = " retail, ,food ,"

	mp := profile.ToMerchant(p, "synvya.com")
	assert.Equal(t, "Corner Shop", *mp.Name)
	assert.Equal(t, api.StringList{"retail", "food"}, mp.Hashtags)
	assert.Equal(t, profile.Namespace, *mp.Namespace)
	assert.Equal(t, "corner_shop@synvya.com", *mp.NIP05)
	assert.Equal(t, "retail", *mp.ProfileType)
}

func TestToMerchant_NamespaceAlwaysForced(t *testing.T) {
	mp := profile.ToMerchant(profile.Profile{}, "")
	assert.Equal(t, profile.Namespace, *mp.Namespace)
	assert.Nil(t, mp.NIP05)
	assert.NotNil(t, mp.Hashtags)
	assert.Empty(t, mp.Hashtags)
}

func TestCategoriesRoundTrip(t *testing.T) {
	remote := api.MerchantProfile{Hashtags: api.StringList{"retail", "food "}}
	p, _ := profile.FromMerchant(remote)
	assert.Equal(t, "retail, food", p.Categories)

	back := profile.ToMerchant(p, "synvya.com")
	assert.Equal(t, api.StringList{"retail", "food"}, back.Hashtags)
}

func TestHandle(t *testing.T) {
	cases := []struct {
		name, domain, want string
	}{
		{"Corner Shop", "synvya.com", "corner_shop@synvya.com"},
		{"  Joe's   Coffee Bar ", "synvya.com", "joes_coffee_bar@synvya.com"},
		{"ACME", "", "acme"},
		{"!!!", "synvya.com", ""},
		{"", "synvya.com", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, profile.Handle(tc.name, tc.domain))
		})
	}
}

func TestSplitJoinCategories(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, profile.SplitCategories("a,b"))
	assert.Nil(t, profile.SplitCategories(" , ,"))
	assert.Equal(t, "a, b", profile.JoinCategories([]string{" a", "", "b "}))
	assert.Equal(t, "", profile.JoinCategories(nil))
}
