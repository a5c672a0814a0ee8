package oauth

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Callback parameter names.
const (
	ParamCode             = "code"
	ParamAccessToken      = "access_token"
	ParamMerchantID       = "merchant_id"
	ParamProfilePublished = "profile_published"
	ParamError            = "error"
	ParamState            = "state"
)

// MessageType is the only message type accepted from a popup window.
const MessageType = "oauth-callback"

var sensitiveParams = []string{
	ParamCode,
	ParamAccessToken,
	ParamMerchantID,
	ParamProfilePublished,
	ParamError,
	ParamState,
}

// Params are the candidate values found in a callback.
type Params struct {
	Code             string
	AccessToken      string
	MerchantID       string
	ProfilePublished string
	Error            string
	State            string
}

// Published reports whether the backend said the profile was published.
func (p Params) Published() bool {
	return strings.EqualFold(strings.TrimSpace(p.ProfilePublished), "true")
}

// ParseURL reads callback parameters from raw. For each key the query string
// wins over the fragment.
func ParseURL(raw string) (Params, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Params{}, fmt.Errorf("parsing callback url: %w", err)
	}
	return fromValues(u.Query(), fragmentValues(u)), nil
}

// FromQuery reads callback parameters from an already parsed query.
func FromQuery(q url.Values) Params {
	return fromValues(q, nil)
}

func fromValues(query, fragment url.Values) Params {
	get := func(key string) string {
		if v := query.Get(key); v != "" {
			return v
		}
		return fragment.Get(key)
	}
	return Params{
		Code:             get(ParamCode),
		AccessToken:      get(ParamAccessToken),
		MerchantID:       get(ParamMerchantID),
		ProfilePublished: get(ParamProfilePublished),
		Error:            get(ParamError),
		State:            get(ParamState),
	}
}

func fragmentValues(u *url.URL) url.Values {
	if u.Fragment == "" {
		return nil
	}
	v, err := url.ParseQuery(u.Fragment)
	if err != nil {
		return nil
	}
	return v
}

// CleanURL returns raw with every callback parameter removed from both the
// query and the fragment. Unrelated parameters are kept.
func CleanURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	q := u.Query()
	for _, k := range sensitiveParams {
		q.Del(k)
	}
	u.RawQuery = q.Encode()

	if frag := fragmentValues(u); frag != nil {
		changed := false
		for _, k := range sensitiveParams {
			if frag.Has(k) {
				frag.Del(k)
				changed = true
			}
		}
		if changed {
			u.Fragment = frag.Encode()
			u.RawFragment = ""
		}
	}
	return u.String()
}

// Flag is a boolean that decodes from a JSON bool or string.
type Flag string

// UnmarshalJSON implements json.Unmarshaler.
func (f *Flag) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = Flag(strconv.FormatBool(b))
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("profilePublished: expected bool or string, got %s", data)
	}
	*f = Flag(strings.ToLower(strings.TrimSpace(s)))
	return nil
}

// Message is the payload a popup window posts back.
type Message struct {
	Type             string `json:"type"`
	AccessToken      string `json:"accessToken"`
	MerchantID       string `json:"merchantId"`
	ProfilePublished Flag   `json:"profilePublished"`
	Error            string `json:"error,omitempty"`
	State            string `json:"state,omitempty"`
}

// ParseMessage converts msg into Params. It returns false for messages of
// another type or from an origin outside trusted.
func ParseMessage(origin string, msg Message, trusted []string) (Params, bool) {
	if msg.Type != MessageType || !TrustedOrigin(origin, trusted) {
		return Params{}, false
	}
	return Params{
		AccessToken:      msg.AccessToken,
		MerchantID:       msg.MerchantID,
		ProfilePublished: string(msg.ProfilePublished),
		Error:            msg.Error,
		State:            msg.State,
	}, true
}

// TrustedOrigin reports whether origin matches one of trusted. Origins are
// compared on scheme and host, case-insensitively.
func TrustedOrigin(origin string, trusted []string) bool {
	want := normalizeOrigin(origin)
	if want == "" {
		return false
	}
	for _, t := range trusted {
		if normalizeOrigin(t) == want {
			return true
		}
	}
	return false
}

func normalizeOrigin(origin string) string {
	u, err := url.Parse(strings.TrimSpace(origin))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return strings.ToLower(u.Scheme + "://" + u.Host)
}

// Outcome is the decision taken for a set of Params.
type Outcome int

const (
	// OutcomeNone means the params are not a callback.
	OutcomeNone Outcome = iota
	// OutcomeDenied means the identity provider returned an error.
	OutcomeDenied
	// OutcomeIncomplete means a code arrived without an access token.
	OutcomeIncomplete
	// OutcomeAuthorized means a token and merchant id are both present.
	OutcomeAuthorized
)

func (o Outcome) String() string {
	switch o {
	case OutcomeDenied:
		return "denied"
	case OutcomeIncomplete:
		return "incomplete"
	case OutcomeAuthorized:
		return "authorized"
	default:
		return "none"
	}
}

// Classify applies the callback decision table. An error always wins.
func Classify(p Params) Outcome {
	switch {
	case p.Error != "":
		return OutcomeDenied
	case p.Code != "" && p.AccessToken == "":
		return OutcomeIncomplete
	case p.AccessToken != "" && p.MerchantID != "":
		return OutcomeAuthorized
	default:
		return OutcomeNone
	}
}
