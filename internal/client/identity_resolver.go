package client

import (
	"context"
	"strings"
	"sync"

	"github.com/agnivade/levenshtein"
	"github.com/rs/zerolog"
	"github.com/slack-go/slack"
)

// Resolver maps a display name from the spreadsheet onto a chat user ID.
type Resolver interface {
	Resolve(ctx context.Context, displayName string) (string, bool)
}

// userLister is the slice of the Slack API the resolver needs.
// *slack.Client satisfies it.
type userLister interface {
	GetUsersContext(ctx context.Context, options ...slack.GetUsersOption) ([]slack.User, error)
}

// IdentityResolver links display names to Slack user IDs. Exact matches
// on real or display names win; otherwise the closest name within a fixed
// edit-distance threshold is accepted. Spreadsheet names are typed by
// humans, so small typos are expected.
type IdentityResolver struct {
	api       userLister
	threshold int
	log       zerolog.Logger

	mu     sync.Mutex
	byName map[string]string
	loaded bool
}

// NewIdentityResolver creates a resolver over the Slack users directory.
// threshold is the maximum accepted edit distance for fuzzy matches.
func NewIdentityResolver(api userLister, threshold int, log zerolog.Logger) *IdentityResolver {
	return &IdentityResolver{api: api, threshold: threshold, log: log}
}

// Resolve returns the Slack user ID for a display name, or false when no
// acceptable match exists. The directory is fetched once and cached.
func (r *IdentityResolver) Resolve(ctx context.Context, displayName string) (string, bool) {
	name := normalizeName(displayName)
	if name == "" {
		return "", false
	}

	directory, err := r.directory(ctx)
	if err != nil {
		r.log.Warn().Err(err).Msg("identity: failed to load user directory")
		return "", false
	}

	if id, ok := directory[name]; ok {
		return id, true
	}

	bestID := ""
	bestDistance := r.threshold + 1
	for candidate, id := range directory {
		d := levenshtein.ComputeDistance(name, candidate)
		if d < bestDistance {
			bestDistance = d
			bestID = id
		}
	}
	if bestID == "" {
		return "", false
	}

	r.log.Debug().
		Str("name", displayName).
		Int("distance", bestDistance).
		Msg("identity: fuzzy-matched display name")
	return bestID, true
}

// directory returns the cached normalized-name index, loading it on first
// use.
func (r *IdentityResolver) directory(ctx context.Context) (map[string]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.loaded {
		return r.byName, nil
	}

	users, err := r.api.GetUsersContext(ctx)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]string, len(users))
	for _, u := range users {
		if u.Deleted || u.IsBot {
			continue
		}
		for _, name := range []string{u.RealName, u.Profile.DisplayName, u.Name} {
			if n := normalizeName(name); n != "" {
				byName[n] = u.ID
			}
		}
	}

	r.byName = byName
	r.loaded = true
	return r.byName, nil
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
