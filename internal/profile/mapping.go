package profile

import (
	"strings"
	"unicode"

	"github.com/synvya/merchant-connect/internal/api"
)

// FromMerchant maps the backend document into a Profile. Absent fields fall
// back to defaults; the names of absent core fields are returned so the
// caller can log them.
func FromMerchant(mp api.MerchantProfile) (Profile, []string) {
	var missing []string
	str := func(field string, v *string) string {
		if v == nil {
			missing = append(missing, field)
			return ""
		}
		return *v
	}

	p := Default()
	p.Name = str("name", mp.Name)
	p.DisplayName = str("display_name", mp.DisplayName)
	p.About = str("about", mp.About)
	p.Website = str("website", mp.Website)
	p.PictureURL = deref(mp.Picture)
	p.BannerURL = deref(mp.Banner)
	if mp.Hashtags == nil {
		missing = append(missing, "hashtags")
	}
	p.Categories = JoinCategories(mp.Hashtags)
	if bt := deref(mp.ProfileType); bt != "" {
		p.BusinessType = bt
	}
	p.PublicKey = PublicKey(mp)
	if p.PublicKey == "" {
		missing = append(missing, "public_key")
	}
	return p, missing
}

// ToMerchant converts p into the publish payload.
func ToMerchant(p Profile, handleDomain string) api.MerchantProfile {
	mp := api.MerchantProfile{
		Name:        ptr(p.Name),
		DisplayName: ptr(p.DisplayName),
		About:       ptr(p.About),
		Website:     ptr(p.Website),
		Hashtags:    api.StringList(SplitCategories(p.Categories)),
		Namespace:   ptr(Namespace),
	}
	if mp.Hashtags == nil {
		mp.Hashtags = api.StringList{}
	}
	if p.BusinessType != "" {
		mp.ProfileType = ptr(p.BusinessType)
	}
	if h := Handle(p.Name, handleDomain); h != "" {
		mp.NIP05 = ptr(h)
	}
	return mp
}

// JoinCategories renders tags as the comma separated edit string.
func JoinCategories(tags []string) string {
	return strings.Join(cleanTags(tags), ", ")
}

// SplitCategories parses the edit string back into tags, trimming each and
// dropping empties.
func SplitCategories(s string) []string {
	return cleanTags(strings.Split(s, ","))
}

// Handle derives the handle-like identifier from the business name:
// lower-cased, whitespace runs turned into underscores, characters outside
// [a-z0-9._-] removed. It returns "" when nothing usable remains.
func Handle(name, domain string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case unicode.IsSpace(r):
			pendingSep = b.Len() > 0
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			if pendingSep {
				b.WriteByte('_')
				pendingSep = false
			}
			b.WriteRune(r)
		}
	}
	local := b.String()
	if local == "" {
		return ""
	}
	if domain == "" {
		return local
	}
	return local + "@" + domain
}

// PublicKey reads the dedicated field, falling back to the local part of the
// handle.
func PublicKey(mp api.MerchantProfile) string {
	if k := strings.TrimSpace(deref(mp.PublicKey)); k != "" {
		return k
	}
	if h := deref(mp.NIP05); h != "" {
		local, _, _ := strings.Cut(h, "@")
		return strings.TrimSpace(local)
	}
	return ""
}

func cleanTags(tags []string) []string {
	var out []string
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func ptr(s string) *string { return &s }
