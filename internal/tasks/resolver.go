package tasks

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ibup/internal/services"
	"github.com/desertthunder/ibup/internal/shared"
)

// LibraryClient is the part of [services.Client] the resolver needs.
type LibraryClient interface {
	Library(ctx context.Context, sess services.Session) (*services.Library, error)
	CreateTag(ctx context.Context, sess services.Session, name string) (services.ID, error)
	CreatePlaylist(ctx context.Context, sess services.Session, name string) (services.ID, error)
}

// Metadata maps requested tag and playlist names to their ids. Read-only once resolved.
type Metadata struct {
	Tags      map[string]services.ID
	Playlists map[string]services.ID
}

// TagNames returns the tag names in the order they are applied.
func (m Metadata) TagNames() []string { return sortedNames(m.Tags) }

// PlaylistNames returns the playlist names in the order they are applied.
func (m Metadata) PlaylistNames() []string { return sortedNames(m.Playlists) }

// Resolver maps tag and playlist names to ids, creating what is missing.
//
// The catalog is fetched on first use and never again. Ids of created
// entries are cached, so resolving a name twice in one run creates it at most once.
type Resolver struct {
	client   LibraryClient
	sess     services.Session
	logger   *log.Logger
	progress chan<- ProgressUpdate

	mu        sync.Mutex
	fetched   bool
	tags      map[string]services.ID
	playlists map[string]services.ID
}

// NewResolver creates a resolver for sess. progress may be nil.
func NewResolver(client LibraryClient, sess services.Session, logger *log.Logger, progress chan<- ProgressUpdate) *Resolver {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Resolver{
		client:    client,
		sess:      sess,
		logger:    logger,
		progress:  progress,
		tags:      map[string]services.ID{},
		playlists: map[string]services.ID{},
	}
}

// Resolve resolves both lists. Any failure wraps [shared.ErrMetadataResolve].
func (r *Resolver) Resolve(ctx context.Context, tags, playlists []string) (Metadata, error) {
	tagIDs, err := r.ResolveTags(ctx, tags)
	if err != nil {
		return Metadata{}, fmt.Errorf("%w: %w", shared.ErrMetadataResolve, err)
	}

	playlistIDs, err := r.ResolvePlaylists(ctx, playlists)
	if err != nil {
		return Metadata{}, fmt.Errorf("%w: %w", shared.ErrMetadataResolve, err)
	}

	return Metadata{Tags: tagIDs, Playlists: playlistIDs}, nil
}

// ResolveTags returns the id of every name, creating missing tags.
func (r *Resolver) ResolveTags(ctx context.Context, names []string) (map[string]services.ID, error) {
	return r.resolve(ctx, "tag", names, r.tags, r.client.CreateTag)
}

// ResolvePlaylists returns the id of every name, creating missing playlists.
func (r *Resolver) ResolvePlaylists(ctx context.Context, names []string) (map[string]services.ID, error) {
	return r.resolve(ctx, "playlist", names, r.playlists, r.client.CreatePlaylist)
}

type createFunc func(ctx context.Context, sess services.Session, name string) (services.ID, error)

func (r *Resolver) resolve(ctx context.Context, kind string, names []string, cache map[string]services.ID, create createFunc) (map[string]services.ID, error) {
	out := make(map[string]services.ID, len(names))
	if len(names) == 0 {
		return out, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.fetchLocked(ctx); err != nil {
		return nil, err
	}

	missing := []string{}
	for _, name := range unique(names) {
		if id, ok := cache[name]; ok {
			out[name] = id
			continue
		}
		missing = append(missing, name)
	}

	for i, name := range missing {
		sendProgress(r.progress, createUpdate(kind, name, i+1, len(missing)))

		id, err := create(ctx, r.sess, name)
		if err != nil {
			return nil, err
		}
		r.logger.Info("created "+kind, "name", name, "id", id)

		cache[name] = id
		out[name] = id
	}

	return out, nil
}

func (r *Resolver) fetchLocked(ctx context.Context) error {
	if r.fetched {
		return nil
	}

	sendProgress(r.progress, fetchLibraryUpdate())

	lib, err := r.client.Library(ctx, r.sess)
	if err != nil {
		return err
	}

	// Entries are ordered by id, so the oldest wins when names collide.
	for _, tag := range lib.Tags {
		if _, ok := r.tags[tag.Name]; !ok {
			r.tags[tag.Name] = tag.ID
		}
	}
	for _, pl := range lib.Playlists {
		if _, ok := r.playlists[pl.Name]; !ok && pl.Name != "" {
			r.playlists[pl.Name] = pl.ID
		}
	}

	r.fetched = true
	r.logger.Debug("library fetched", "tags", len(lib.Tags), "playlists", len(lib.Playlists))
	return nil
}

func unique(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func sortedNames(m map[string]services.ID) []string {
	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
