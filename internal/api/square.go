package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// Ping issues a GET against path and returns the status. Any 2xx is up.
func (c *Client) Ping(ctx context.Context, path string) (int, error) {
	return c.do(ctx, http.MethodGet, path, nil, nil, http.Header{"Cache-Control": {"no-cache"}})
}

// Head issues a HEAD against path.
func (c *Client) Head(ctx context.Context, path string) (int, error) {
	return c.do(ctx, http.MethodHead, path, nil, nil, http.Header{"Cache-Control": {"no-cache"}})
}

// AuthorizeURL is the browser-navigated OAuth kickoff. It is never fetched
// by the client itself.
func (c *Client) AuthorizeURL(redirectURI string) string {
	q := url.Values{}
	q.Set("redirect_uri", redirectURI)
	return c.URL(c.prefix+"/oauth") + "?" + q.Encode()
}

// MerchantProfile fetches the merchant's profile document.
func (c *Client) MerchantProfile(ctx context.Context) (MerchantProfile, error) {
	var raw json.RawMessage
	path := c.prefix + "/profile"
	if _, err := c.Do(ctx, http.MethodGet, path, nil, &raw); err != nil {
		return MerchantProfile{}, err
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return MerchantProfile{}, fmt.Errorf("GET %s: %w", path, ErrUnexpectedShape)
	}
	var mp MerchantProfile
	if err := json.Unmarshal(raw, &mp); err != nil {
		return MerchantProfile{}, &Error{Kind: KindDecode, Method: http.MethodGet, URL: c.URL(path), Status: http.StatusOK, Body: raw, Err: err}
	}
	if mp.PublicKey == nil || *mp.PublicKey == "" {
		c.log.Warn("merchant profile has no public_key field")
	}
	return mp, nil
}

// PublishProfile sends a (partial) profile to be stored and published.
func (c *Client) PublishProfile(ctx context.Context, mp MerchantProfile) (PublishResult, error) {
	return c.publish(ctx, c.prefix+"/profile/publish", mp)
}

// PublishLocations asks the backend to publish the merchant's locations.
func (c *Client) PublishLocations(ctx context.Context) (PublishResult, error) {
	return c.publish(ctx, c.prefix+"/locations/publish", nil)
}

// PublishCatalog asks the backend to publish the merchant's product catalog.
func (c *Client) PublishCatalog(ctx context.Context) (PublishResult, error) {
	return c.publish(ctx, c.prefix+"/catalog/publish", nil)
}

// SellerInfo returns auxiliary merchant metadata as a loose document.
func (c *Client) SellerInfo(ctx context.Context) (map[string]any, error) {
	var info map[string]any
	if _, err := c.Do(ctx, http.MethodGet, c.prefix+"/seller/info", nil, &info); err != nil {
		return nil, err
	}
	if info == nil {
		info = map[string]any{}
	}
	return info, nil
}

func (c *Client) publish(ctx context.Context, path string, body any) (PublishResult, error) {
	var raw json.RawMessage
	status, err := c.Do(ctx, http.MethodPost, path, body, &raw)
	if err != nil {
		return PublishResult{Status: status}, err
	}
	return interpretPublish(status, raw), nil
}
