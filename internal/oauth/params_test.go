package oauth_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/synvya/merchant-connect/internal/oauth"
)

func TestParseURL(t *testing.T) {
	t.Run("query", func(t *testing.T) {
		p, err := oauth.ParseURL("http://127.0.0.1:8765/auth/callback?access_token=abc123&merchant_id=M1&profile_published=true")
		require.NoError(t, err)
		assert.Equal(t, "abc123", p.AccessToken)
		assert.Equal(t, "M1", p.MerchantID)
		assert.True(t, p.Published())
	})

	t.Run("fragment", func(t *testing.T) {
		p, err := oauth.ParseURL("http://127.0.0.1:8765/auth/callback#access_token=abc123&merchant_id=M1")
		require.NoError(t, err)
		assert.Equal(t, "abc123", p.AccessToken)
		assert.Equal(t, "M1", p.MerchantID)
		assert.False(t, p.Published())
	})

	t.Run("published flag ignores case", func(t *testing.T) {
		for _, v := range []string{"True", "TRUE", "true"} {
			p, err := oauth.ParseURL("http://x/auth/callback?access_token=t&merchant_id=m&profile_published=" + v)
			require.NoError(t, err)
			assert.True(t, p.Published(), v)

			p, err = oauth.ParseURL("http://x/auth/callback#access_token=t&merchant_id=m&profile_published=" + v)
			require.NoError(t, err)
			assert.True(t, p.Published(), v)
		}
		p, err := oauth.ParseURL("http://x/auth/callback?profile_published=False")
		require.NoError(t, err)
		assert.False(t, p.Published())
	})

	t.Run("query wins over fragment", func(t *testing.T) {
		p, err := oauth.ParseURL("http://x/auth/callback?merchant_id=Q#merchant_id=F&access_token=tok")
		require.NoError(t, err)
		assert.Equal(t, "Q", p.MerchantID)
		assert.Equal(t, "tok", p.AccessToken)
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := oauth.ParseURL("http://x/%zz")
		assert.Error(t, err)
	})
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		p    oauth.Params
		want oauth.Outcome
	}{
		{"empty", oauth.Params{}, oauth.OutcomeNone},
		{"error", oauth.Params{Error: "access_denied"}, oauth.OutcomeDenied},
		{"error wins over token", oauth.Params{Error: "x", AccessToken: "t", MerchantID: "m"}, oauth.OutcomeDenied},
		{"code only", oauth.Params{Code: "c"}, oauth.OutcomeIncomplete},
		{"code and merchant", oauth.Params{Code: "c", MerchantID: "m"}, oauth.OutcomeIncomplete},
		{"token and merchant", oauth.Params{AccessToken: "t", MerchantID: "m"}, oauth.OutcomeAuthorized},
		{"code with token", oauth.Params{Code: "c", AccessToken: "t", MerchantID: "m"}, oauth.OutcomeAuthorized},
		{"token without merchant", oauth.Params{AccessToken: "t"}, oauth.OutcomeNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, oauth.Classify(tt.p))
		})
	}
}

func TestCleanURL(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{
			"http://127.0.0.1:8765/auth/callback?access_token=abc123&merchant_id=M1&profile_published=true",
			"http://127.0.0.1:8765/auth/callback",
		},
		{
			"http://127.0.0.1:8765/auth/callback?lang=en&access_token=abc123&state=s1",
			"http://127.0.0.1:8765/auth/callback?lang=en",
		},
		{
			"http://127.0.0.1:8765/auth/callback#access_token=abc123&merchant_id=M1",
			"http://127.0.0.1:8765/auth/callback",
		},
		{
			"http://127.0.0.1:8765/profile#section",
			"http://127.0.0.1:8765/profile#section",
		},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, oauth.CleanURL(tt.raw))
		})
	}
}

func TestParseMessage(t *testing.T) {
	trusted := []string{"https://synvya.com", "http://localhost:8080"}
	msg := oauth.Message{
		Type:             oauth.MessageType,
		AccessToken:      "abc123",
		MerchantID:       "M1",
		ProfilePublished: "true",
	}

	t.Run("trusted origin", func(t *testing.T) {
		p, ok := oauth.ParseMessage("https://SYNVYA.com", msg, trusted)
		require.True(t, ok)
		assert.Equal(t, "abc123", p.AccessToken)
		assert.True(t, p.Published())
	})

	t.Run("untrusted origin", func(t *testing.T) {
		_, ok := oauth.ParseMessage("https://evil.example", msg, trusted)
		assert.False(t, ok)
	})

	t.Run("lookalike origin", func(t *testing.T) {
		_, ok := oauth.ParseMessage("https://synvya.com.evil.example", msg, trusted)
		assert.False(t, ok)
	})

	t.Run("wrong type", func(t *testing.T) {
		other := msg
		other.Type = "something-else"
		_, ok := oauth.ParseMessage("https://synvya.com", other, trusted)
		assert.False(t, ok)
	})

	t.Run("missing origin", func(t *testing.T) {
		_, ok := oauth.ParseMessage("", msg, trusted)
		assert.False(t, ok)
	})
}

func TestMessage_ProfilePublishedDecoding(t *testing.T) {
	tests := map[string]oauth.Flag{
		`{"type":"oauth-callback","profilePublished":true}`:    "true",
		`{"type":"oauth-callback","profilePublished":false}`:   "false",
		`{"type":"oauth-callback","profilePublished":"TRUE "}`: "true",
		`{"type":"oauth-callback"}`:                            "",
	}
	for raw, want := range tests {
		var msg oauth.Message
		require.NoError(t, json.Unmarshal([]byte(raw), &msg), raw)
		assert.Equal(t, want, msg.ProfilePublished, raw)
	}

	var msg oauth.Message
	assert.Error(t, json.Unmarshal([]byte(`{"profilePublished":1}`), &msg))
}
