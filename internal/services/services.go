// package services implements the client for the music locker's HTTP/JSON API
package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Session is the authenticated identity returned by [Client.Login].
//
// It is created once, never refreshed, and passed by value to every call that needs it.
type Session struct {
	UserID json.Number
	Token  string
}

// Valid reports whether both credentials are set.
func (s Session) Valid() bool {
	return s.UserID != "" && s.Token != ""
}

// ID identifies a tag or playlist.
//
// The service hands ids out both as JSON numbers (create replies) and as
// object keys (the library catalog). An ID remembers which form it arrived in
// and is sent back the same way.
type ID struct {
	value  string
	number bool
}

// StringID is an id received as a string, such as a library catalog key.
func StringID(s string) ID { return ID{value: s} }

// NumberID is an id received as a JSON number.
func NumberID(s string) ID { return ID{value: s, number: true} }

func (id ID) String() string { return id.value }

// IsZero reports whether the id is empty.
func (id ID) IsZero() bool { return id.value == "" }

// MarshalJSON encodes the id in the form it was received.
func (id ID) MarshalJSON() ([]byte, error) {
	if id.number {
		if _, err := strconv.ParseFloat(id.value, 64); err == nil {
			return []byte(id.value), nil
		}
	}
	return json.Marshal(id.value)
}

// UnmarshalJSON accepts a JSON number or string.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = StringID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a number or string: %w", err)
	}
	*id = NumberID(n.String())
	return nil
}

// Response is a decoded reply from any of the three API surfaces.
//
// Body keeps the raw bytes so failures can be reported with the exact server reply.
type Response struct {
	StatusCode int
	Body       []byte
	HasResult  bool
	Result     bool
	Message    string
}

// OK reports whether the server included "result": true.
func (r *Response) OK() bool {
	return r != nil && r.HasResult && r.Result
}

// String returns the raw body for diagnostics.
func (r *Response) String() string {
	if r == nil {
		return ""
	}
	return string(r.Body)
}

// Tag is an entry of the remote tag catalog.
type Tag struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
}

// Playlist is an entry of the remote playlist catalog, rebuilt from its positional fields.
type Playlist struct {
	ID     ID                         `json:"id"`
	Name   string                     `json:"name"`
	Fields map[string]json.RawMessage `json:"fields,omitempty"`
}

// Library is the remote tag and playlist catalog.
type Library struct {
	Tags      []Tag      `json:"tags"`
	Playlists []Playlist `json:"playlists"`
}
