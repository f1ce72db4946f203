package entry

import (
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/ardnew/ytsub/script"
)

// ErrUnknownSource is returned when a source name is not registered.
var ErrUnknownSource = script.NewError("unknown source")

// DefaultSource is the source used when none is configured.
const DefaultSource = "generic"

// Source describes a media site: the extractors that identify it and the
// extra variables its entries provide.
type Source struct {
	Name       string
	Extractors []string
	Variables  []Variable
}

// Sources returns the registry of known sources. The registry is built once
// and must not be modified.
var Sources = sync.OnceValue(func() map[string]*Source {
	table := []*Source{
		{
			Name: DefaultSource,
		},
		{
			Name:       "youtube",
			Extractors: []string{"youtube", "youtube:tab", "youtube:playlist"},
			Variables: []Variable{
				{
					Name: "channel",
					Doc:  "Name of the channel that uploaded the entry.",
					Get:  stringFieldOf("channel", "uploader"),
				},
				{
					Name: "channel_id",
					Doc:  "Identifier of the channel that uploaded the entry.",
					Get:  stringFieldOf("channel_id", "uploader_id"),
				},
				{
					Name: "playlist_title",
					Doc:  "Title of the playlist containing the entry.",
					Get:  stringField("playlist_title"),
				},
				{
					Name: "playlist_index",
					Doc:  "1-based position of the entry within its playlist.",
					Get:  integerField("playlist_index"),
				},
				{
					Name: "playlist_count",
					Doc:  "Number of entries in the playlist.",
					Get:  integerField("playlist_count", "n_entries"),
				},
			},
		},
		{
			Name:       "soundcloud",
			Extractors: []string{"soundcloud", "soundcloud:set", "soundcloud:user"},
			Variables: []Variable{
				{
					Name: "artist",
					Doc:  "Artist of the track.",
					Get:  stringFieldOf("artist", "uploader"),
				},
				{
					Name: "track_number",
					Doc:  "1-based position of the track within its album.",
					Get:  integerField("track_number", "playlist_index"),
				},
			},
		},
	}

	reg := make(map[string]*Source, len(table))
	for _, s := range table {
		reg[s.Name] = s
	}

	return reg
})

// SourceNames returns the registered source names in sorted order.
func SourceNames() []string {
	return slices.Sorted(maps.Keys(Sources()))
}

// LookupSource returns the source registered under name.
func LookupSource(name string) (*Source, error) {
	if s, ok := Sources()[name]; ok {
		return s, nil
	}

	return nil, ErrUnknownSource.With(
		slog.String("source", name),
		slog.String("known", strings.Join(SourceNames(), ", ")),
	)
}

// SourceFor returns the source whose extractors include extractor, or the
// generic source if none match.
func SourceFor(extractor string) *Source {
	extractor = strings.ToLower(extractor)

	for _, s := range Sources() {
		if slices.Contains(s.Extractors, extractor) {
			return s
		}
	}

	return Sources()[DefaultSource]
}
