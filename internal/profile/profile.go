// Package profile holds the merchant's editable profile and pushes it to
// the backend.
package profile

// Namespace is sent with every published profile.
const Namespace = "com.synvya.merchant"

// DefaultBusinessType is used when the backend has none.
const DefaultBusinessType = "retail"

// BusinessType is one of the profile types the backend understands.
type BusinessType struct {
	Value string
	Label string
}

// BusinessTypes lists the selectable business types in display order.
var BusinessTypes = []BusinessType{
	{"retail", "Retail"},
	{"restaurant", "Restaurant"},
	{"service", "Services"},
	{"business", "Business"},
	{"entertainment", "Entertainment"},
	{"other", "Other"},
}

// Profile is the local, editable view of a merchant profile.
type Profile struct {
	Name        string `json:"name" yaml:"name"`
	DisplayName string `json:"display_name" yaml:"display_name"`
	About       string `json:"about" yaml:"about"`

	// PictureFile and BannerFile are local files chosen for upload.
	PictureFile string `json:"picture_file,omitempty" yaml:"picture_file,omitempty"`
	PictureURL  string `json:"picture_url,omitempty" yaml:"picture_url,omitempty"`
	BannerFile  string `json:"banner_file,omitempty" yaml:"banner_file,omitempty"`
	BannerURL   string `json:"banner_url,omitempty" yaml:"banner_url,omitempty"`

	Website      string `json:"website" yaml:"website"`
	Categories   string `json:"categories" yaml:"categories"`
	BusinessType string `json:"business_type" yaml:"business_type"`
	PublicKey    string `json:"public_key" yaml:"public_key"`

	IsConnected      bool `json:"is_connected" yaml:"is_connected"`
	ProfilePublished bool `json:"profile_published" yaml:"profile_published"`
	IsLoading        bool `json:"-" yaml:"-"`
}

// Default returns the empty profile.
func Default() Profile {
	return Profile{BusinessType: DefaultBusinessType}
}

// Partial carries the fields an edit changes. Nil fields are left alone.
type Partial struct {
	Name         *string
	DisplayName  *string
	About        *string
	PictureFile  *string
	PictureURL   *string
	BannerFile   *string
	BannerURL    *string
	Website      *string
	Categories   *string
	BusinessType *string
}

// Apply returns p with every non-nil field of u copied over.
func (p Profile) Apply(u Partial) Profile {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&p.Name, u.Name)
	set(&p.DisplayName, u.DisplayName)
	set(&p.About, u.About)
	set(&p.PictureFile, u.PictureFile)
	set(&p.PictureURL, u.PictureURL)
	set(&p.BannerFile, u.BannerFile)
	set(&p.BannerURL, u.BannerURL)
	set(&p.Website, u.Website)
	set(&p.Categories, u.Categories)
	set(&p.BusinessType, u.BusinessType)
	return p
}

// Merge combines two partials; fields set in b win.
func (a Partial) Merge(b Partial) Partial {
	pick := func(x, y *string) *string {
		if y != nil {
			return y
		}
		return x
	}
	return Partial{
		Name:         pick(a.Name, b.Name),
		DisplayName:  pick(a.DisplayName, b.DisplayName),
		About:        pick(a.About, b.About),
		PictureFile:  pick(a.PictureFile, b.PictureFile),
		PictureURL:   pick(a.PictureURL, b.PictureURL),
		BannerFile:   pick(a.BannerFile, b.BannerFile),
		BannerURL:    pick(a.BannerURL, b.BannerURL),
		Website:      pick(a.Website, b.Website),
		Categories:   pick(a.Categories, b.Categories),
		BusinessType: pick(a.BusinessType, b.BusinessType),
	}
}

// String returns a pointer to s, for building a Partial.
func String(s string) *string { return &s }
