package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/desertthunder/ibup/internal/shared"
)

type libraryReply struct {
	Library *struct {
		Tags      map[string]json.RawMessage `json:"tags"`
		Playlists map[string]json.RawMessage `json:"playlists"`
	} `json:"library"`
}

// Library fetches the remote tag and playlist catalog.
//
// Playlists arrive as positional arrays described by a "map" entry
// (field name to index); they are rebuilt into named fields here.
func (c *Client) Library(ctx context.Context, sess Session) (*Library, error) {
	if !sess.Valid() {
		return nil, fmt.Errorf("%w: %w", shared.ErrLibraryFetch, shared.ErrNotAuthenticated)
	}

	resp, err := c.libraryRequest(ctx, sess)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrLibraryFetch, err)
	}

	var reply libraryReply
	if err := decode(resp, &reply); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrLibraryFetch, err)
	}
	if reply.Library == nil {
		return nil, fmt.Errorf("%w: %w: no library in response", shared.ErrLibraryFetch, shared.ErrMalformedBody)
	}

	tags, err := parseTags(reply.Library.Tags)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrLibraryFetch, err)
	}

	playlists, err := parsePlaylists(reply.Library.Playlists)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrLibraryFetch, err)
	}

	return &Library{Tags: tags, Playlists: playlists}, nil
}

func parseTags(raw map[string]json.RawMessage) ([]Tag, error) {
	tags := make([]Tag, 0, len(raw))
	for id, data := range raw {
		var info struct {
			Name *string `json:"name"`
		}
		if err := json.Unmarshal(data, &info); err != nil {
			return nil, fmt.Errorf("%w: tag %s: %v", shared.ErrMalformedBody, id, err)
		}
		if info.Name == nil {
			continue
		}
		tags = append(tags, Tag{ID: StringID(id), Name: *info.Name})
	}

	sort.Slice(tags, func(i, j int) bool { return lessID(tags[i].ID, tags[j].ID) })
	return tags, nil
}

func parsePlaylists(raw map[string]json.RawMessage) ([]Playlist, error) {
	if len(raw) == 0 {
		return []Playlist{}, nil
	}

	mapData, ok := raw["map"]
	if !ok {
		return nil, fmt.Errorf("%w: playlists without a field map", shared.ErrMalformedBody)
	}

	var fieldMap map[string]int
	if err := json.Unmarshal(mapData, &fieldMap); err != nil {
		return nil, fmt.Errorf("%w: playlist field map: %v", shared.ErrMalformedBody, err)
	}

	playlists := make([]Playlist, 0, len(raw)-1)
	for id, data := range raw {
		if id == "map" {
			continue
		}

		var values []json.RawMessage
		if err := json.Unmarshal(data, &values); err != nil {
			return nil, fmt.Errorf("%w: playlist %s: %v", shared.ErrMalformedBody, id, err)
		}

		fields := make(map[string]json.RawMessage, len(fieldMap))
		for name, pos := range fieldMap {
			if pos >= 0 && pos < len(values) {
				fields[name] = values[pos]
			}
		}

		var name string
		if v, ok := fields["name"]; ok {
			if err := json.Unmarshal(v, &name); err != nil {
				continue
			}
		}

		playlists = append(playlists, Playlist{ID: StringID(id), Name: name, Fields: fields})
	}

	sort.Slice(playlists, func(i, j int) bool { return lessID(playlists[i].ID, playlists[j].ID) })
	return playlists, nil
}

// lessID orders numeric ids numerically and everything else lexicographically.
func lessID(a, b ID) bool {
	an, aerr := strconv.ParseInt(a.value, 10, 64)
	bn, berr := strconv.ParseInt(b.value, 10, 64)
	if aerr == nil && berr == nil {
		return an < bn
	}
	return a.value < b.value
}

// CreateTag creates a tag and returns its id. The call is not idempotent.
func (c *Client) CreateTag(ctx context.Context, sess Session, name string) (ID, error) {
	resp, err := c.apiRequest(ctx, sess, "createtag", map[string]any{"tagname": name}, true)
	if err != nil {
		return ID{}, fmt.Errorf("failed to create tag %q: %w", name, err)
	}

	var reply struct {
		ID *ID `json:"id"`
	}
	if err := decode(resp, &reply); err != nil {
		return ID{}, err
	}
	if reply.ID == nil || reply.ID.IsZero() {
		return ID{}, fmt.Errorf("%w: createtag reply has no id", shared.ErrMalformedBody)
	}
	return *reply.ID, nil
}

// CreatePlaylist creates a playlist and returns its id. The call is not idempotent.
func (c *Client) CreatePlaylist(ctx context.Context, sess Session, name string) (ID, error) {
	resp, err := c.apiRequest(ctx, sess, "createplaylist", map[string]any{"name": name}, true)
	if err != nil {
		return ID{}, fmt.Errorf("failed to create playlist %q: %w", name, err)
	}

	var reply struct {
		ID *ID `json:"playlist_id"`
	}
	if err := decode(resp, &reply); err != nil {
		return ID{}, err
	}
	if reply.ID == nil || reply.ID.IsZero() {
		return ID{}, fmt.Errorf("%w: createplaylist reply has no playlist_id", shared.ErrMalformedBody)
	}
	return *reply.ID, nil
}

// TagTracks applies a tag to tracks. The result flag is left for the caller to inspect.
func (c *Client) TagTracks(ctx context.Context, sess Session, tagID ID, trackIDs ...int64) (*Response, error) {
	return c.apiRequest(ctx, sess, "tagtracks", map[string]any{
		"tagid":  tagID,
		"tracks": tracks(trackIDs),
	}, false)
}

// AppendPlaylist appends tracks to a playlist. The result flag is left for the caller to inspect.
func (c *Client) AppendPlaylist(ctx context.Context, sess Session, playlistID ID, trackIDs ...int64) (*Response, error) {
	return c.apiRequest(ctx, sess, "appendplaylist", map[string]any{
		"playlist": playlistID,
		"tracks":   tracks(trackIDs),
	}, false)
}

func tracks(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}
