package api

import (
	"bytes"
	"encoding/json"
	"strings"
)

// MerchantProfile is the backend's profile document. Every field is
// optional on the wire.
type MerchantProfile struct {
	Name        *string    `json:"name,omitempty"`
	DisplayName *string    `json:"display_name,omitempty"`
	About       *string    `json:"about,omitempty"`
	Picture     *string    `json:"picture,omitempty"`
	Banner      *string    `json:"banner,omitempty"`
	Website     *string    `json:"website,omitempty"`
	Hashtags    StringList `json:"hashtags,omitempty"`
	ProfileType *string    `json:"profile_type,omitempty"`
	Namespace   *string    `json:"namespace,omitempty"`
	NIP05       *string    `json:"nip05,omitempty"`
	Locations   StringList `json:"locations,omitempty"`
	PublicKey   *string    `json:"public_key,omitempty"`
}

// StringList decodes a JSON array of strings, a single comma separated
// string, or null. Non-string array members are skipped.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		var out StringList
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		*l = out
		return nil
	}
	if data[0] != '[' {
		*l = nil
		return nil
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(StringList, 0, len(raw))
	for _, item := range raw {
		var s string
		if json.Unmarshal(item, &s) == nil {
			out = append(out, s)
		}
	}
	*l = out
	return nil
}

// PublishResult is the interpreted answer of a publish endpoint.
type PublishResult struct {
	Success bool
	Message string
	Status  int
	Data    json.RawMessage
}

type publishBody struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
	Detail  string `json:"detail"`
}

// interpretPublish prefers the body's success flag and falls back to the
// HTTP status range when the flag is absent.
func interpretPublish(status int, data json.RawMessage) PublishResult {
	res := PublishResult{
		Success: status >= 200 && status <= 299,
		Status:  status,
		Data:    data,
	}
	var body publishBody
	if len(data) > 0 && json.Unmarshal(data, &body) == nil {
		if body.Success != nil {
			res.Success = *body.Success
		}
		res.Message = body.Message
		if res.Message == "" {
			res.Message = body.Detail
		}
	}
	return res
}
