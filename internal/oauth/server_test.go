package oauth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/synvya/merchant-connect/internal/oauth"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newCallbackServer(t *testing.T, trusted ...string) (*oauth.CallbackServer, *httptest.Server) {
	t.Helper()
	s := oauth.NewCallbackServer(trusted, nil)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	s.SetBaseURL(ts.URL)
	return s, ts
}

func noRedirectClient() *http.Client {
	return &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func waitNone(t *testing.T, s *oauth.CallbackServer) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err := s.CompleteAuthorization(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCallbackServer_Redirect(t *testing.T) {
	s, ts := newCallbackServer(t)
	redirect := s.Prepare()
	require.True(t, strings.HasPrefix(redirect, ts.URL+oauth.CallbackPath+"?state="))

	resp, err := noRedirectClient().Get(redirect + "&access_token=abc123&merchant_id=M1&profile_published=true")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, oauth.DonePath, resp.Header.Get("Location"))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	p, err := s.CompleteAuthorization(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc123", p.AccessToken)
	assert.Equal(t, "M1", p.MerchantID)
	assert.True(t, p.Published())
}

func TestCallbackServer_IgnoresUnknownState(t *testing.T) {
	s, ts := newCallbackServer(t)
	s.Prepare()

	resp, err := noRedirectClient().Get(ts.URL + oauth.CallbackPath + "?state=forged&access_token=abc123&merchant_id=M1")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	waitNone(t, s)
}

func TestCallbackServer_IgnoresReplay(t *testing.T) {
	s, _ := newCallbackServer(t)
	redirect := s.Prepare()
	client := noRedirectClient()

	resp, err := client.Get(redirect + "&access_token=abc123&merchant_id=M1")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	resp, err = client.Get(redirect + "&access_token=other&merchant_id=M2")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	p, err := s.CompleteAuthorization(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc123", p.AccessToken)
}

func TestCallbackServer_PrepareInvalidatesPreviousAttempt(t *testing.T) {
	s, _ := newCallbackServer(t)
	old := s.Prepare()
	s.Prepare()

	resp, err := noRedirectClient().Get(old + "&access_token=abc123&merchant_id=M1")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	waitNone(t, s)
}

func TestCallbackServer_Message(t *testing.T) {
	post := func(t *testing.T, ts *httptest.Server, origin, body string) *http.Response {
		t.Helper()
		req, err := http.NewRequest(http.MethodPost, ts.URL+oauth.MessagePath, strings.NewReader(body))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")
		if origin != "" {
			req.Header.Set("Origin", origin)
		}
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		return resp
	}

	t.Run("trusted origin", func(t *testing.T) {
		s, ts := newCallbackServer(t, "https://synvya.com")
		redirect := s.Prepare()
		state := strings.TrimPrefix(redirect, s.CallbackURL()+"?state=")

		resp := post(t, ts, "https://synvya.com",
			`{"type":"oauth-callback","accessToken":"abc123","merchantId":"M1","profilePublished":true,"state":"`+state+`"}`)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		assert.Equal(t, "https://synvya.com", resp.Header.Get("Access-Control-Allow-Origin"))

		p, err := s.CompleteAuthorization(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "abc123", p.AccessToken)
		assert.True(t, p.Published())
	})

	t.Run("untrusted origin is ignored", func(t *testing.T) {
		s, ts := newCallbackServer(t, "https://synvya.com")
		redirect := s.Prepare()
		state := strings.TrimPrefix(redirect, s.CallbackURL()+"?state=")

		resp := post(t, ts, "https://evil.example",
			`{"type":"oauth-callback","accessToken":"abc123","merchantId":"M1","state":"`+state+`"}`)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
		waitNone(t, s)
	})

	t.Run("missing state is dropped with a warning", func(t *testing.T) {
		core, logs := observer.New(zap.WarnLevel)
		s := oauth.NewCallbackServer([]string{"https://synvya.com"}, zap.New(core))
		ts := httptest.NewServer(s.Handler())
		t.Cleanup(ts.Close)
		s.SetBaseURL(ts.URL)
		s.Prepare()

		resp := post(t, ts, "https://synvya.com",
			`{"type":"oauth-callback","accessToken":"abc123","merchantId":"M1","profilePublished":true}`)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		waitNone(t, s)

		entries := logs.FilterMessageSnippet("without state").All()
		require.Len(t, entries, 1)
		assert.Equal(t, "https://synvya.com", entries[0].ContextMap()["origin"])
	})

	t.Run("malformed body", func(t *testing.T) {
		s, ts := newCallbackServer(t, "https://synvya.com")
		s.Prepare()
		resp := post(t, ts, "https://synvya.com", `{not json`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestCallbackServer_DonePage(t *testing.T) {
	_, ts := newCallbackServer(t)
	resp, err := http.Get(ts.URL + oauth.DonePath)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
}

func TestCallbackServer_CompleteWithoutPrepare(t *testing.T) {
	s := oauth.NewCallbackServer(nil, nil)
	_, err := s.CompleteAuthorization(context.Background())
	assert.ErrorIs(t, err, oauth.ErrNoAttempt)
}

func TestCallbackServer_ListenAndShutdown(t *testing.T) {
	s := oauth.NewCallbackServer(nil, nil)
	require.NoError(t, s.Listen("127.0.0.1:0"))
	assert.True(t, strings.HasPrefix(s.CallbackURL(), "http://127.0.0.1:"))

	resp, err := http.Get(strings.TrimSuffix(s.CallbackURL(), oauth.CallbackPath) + oauth.DonePath)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))
	assert.NoError(t, s.Shutdown(ctx))
}
