package entry

import (
	"maps"
	"slices"
	"strings"

	"github.com/ardnew/ytsub/script"
)

// Variables added to the context of subscriptions that write subtitles.
const (
	VarLang         = "lang"
	VarSubtitlesExt = "subtitles_ext"
)

// SubtitleTypes lists the subtitle file formats subtitles can be converted
// to.
var SubtitleTypes = []string{"srt", "vtt", "ass", "lrc"}

// SubtitleLanguages returns the language codes of the entry's
// requested_subtitles in sorted order.
func (e *Entry) SubtitleLanguages() []string {
	subs, ok := e.fields["requested_subtitles"].(map[string]any)
	if !ok {
		return nil
	}

	return slices.Sorted(maps.Keys(subs))
}

// SubtitleVariables returns the variables describing the subtitles written
// for an entry. lang joins every requested language with commas; a context
// rendering one subtitle file binds it to that file's language instead.
func SubtitleVariables(ext string) []Variable {
	return []Variable{
		{
			Name: VarLang,
			Doc:  "Requested subtitle languages, comma separated.",
			Get: func(e *Entry) (script.Value, error) {
				langs := e.SubtitleLanguages()
				if len(langs) == 0 {
					return script.Value{}, e.missing("requested_subtitles")
				}

				return script.String(strings.Join(langs, ",")), nil
			},
		},
		{
			Name: VarSubtitlesExt,
			Doc:  "File extension of subtitle files.",
			Get: func(*Entry) (script.Value, error) {
				return script.String(ext), nil
			},
		},
	}
}
