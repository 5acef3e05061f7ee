// Package registry holds the immutable mapping of logical database names to
// connection targets, discovered once at startup from configuration and the
// environment.
package registry

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/sqlens/sqlens/config"
)

const (
	// EnvPrefix declares a logical database: SQLENS_DB_MAIN=postgres://...
	// The key suffix becomes the logical name, lowercased.
	EnvPrefix = "SQLENS_DB_"

	// DescSuffix marks a description instead of a target:
	// SQLENS_DB_MAIN_DESC="F1 racing data".
	DescSuffix = "_DESC"

	// DefaultName is the implicit entry used when nothing is declared.
	DefaultName = "default"
)

// Entry is one logical database.
type Entry struct {
	Name        string
	URL         string
	Description string
}

// Registry maps normalized logical names to entries. Read-only after Build
// and safe for concurrent readers without locking.
type Registry struct {
	entries  map[string]Entry
	explicit bool
}

// Build constructs the registry from the config file's databases section and
// the environment (config first, environment wins on the same name). Names
// are trimmed and lowercased; names empty after normalization are discarded
// with a warning. With no explicit entries at all, the registry holds a
// single implicit "default" entry backed by cfg.DefaultURL, so it is never
// empty.
func Build(cfg config.Config, environ []string, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	entries := make(map[string]Entry)

	insert := func(rawName, url, source string) {
		name := Normalize(rawName)
		if name == "" {
			logger.Warn("discarding database with empty name", "source", source)
			return
		}
		url = strings.TrimSpace(url)
		if url == "" {
			return
		}
		if _, ok := entries[name]; ok {
			logger.Debug("overriding database target", "database", name, "source", source)
		}
		entries[name] = Entry{Name: name, URL: url}
	}

	for name, db := range cfg.Databases {
		insert(name, db.URL, "config")
		if e, ok := entries[Normalize(name)]; ok && db.Description != "" {
			e.Description = db.Description
			entries[e.Name] = e
		}
	}

	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, EnvPrefix) || value == "" {
			continue
		}
		if strings.HasSuffix(key, DescSuffix) {
			continue
		}
		insert(key[len(EnvPrefix):], value, "env")
	}

	// Descriptions attach after all targets are known, so an env description
	// can annotate a config-declared database.
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, EnvPrefix) || !strings.HasSuffix(key, DescSuffix) || value == "" {
			continue
		}
		name := Normalize(strings.TrimSuffix(key[len(EnvPrefix):], DescSuffix))
		if e, found := entries[name]; found {
			e.Description = value
			entries[name] = e
		}
	}

	explicit := len(entries) > 0
	if !explicit {
		url := strings.TrimSpace(cfg.DefaultURL)
		if url == "" {
			url = config.DefaultDatabaseURL
		}
		entries[DefaultName] = Entry{Name: DefaultName, URL: url}
		logger.Info("no databases declared, using implicit default", "url", url)
	}

	return &Registry{entries: entries, explicit: explicit}
}

// Normalize maps a raw name onto its registry key: trimmed and lowercased.
func Normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Get looks up a logical database, normalizing the requested name.
func (r *Registry) Get(name string) (Entry, bool) {
	e, ok := r.entries[Normalize(name)]
	return e, ok
}

// Names returns all logical names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len reports the number of registered databases.
func (r *Registry) Len() int {
	return len(r.entries)
}

// HasExplicitEntries reports whether any database was actually declared;
// false means the registry is running on the implicit default.
func (r *Registry) HasExplicitEntries() bool {
	return r.explicit
}

// Descriptions returns the names that carry a non-empty description.
func (r *Registry) Descriptions() map[string]string {
	out := make(map[string]string)
	for name, e := range r.entries {
		if e.Description != "" {
			out[name] = e.Description
		}
	}
	return out
}

// Entries returns all entries sorted by name.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, 0, len(r.entries))
	for _, name := range r.Names() {
		out = append(out, r.entries[name])
	}
	return out
}
