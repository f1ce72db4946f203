// Package entry turns the metadata of a downloaded media item into the
// variable context that templates are evaluated against.
//
// An [Entry] holds the raw metadata, usually decoded from the .info.json file
// yt-dlp writes next to each download. A [Builder] combines three tables of
// variables into one [script.Context] per entry:
//
//   - [BaseVariables], provided by every entry (uid, extractor);
//   - [MediaVariables], describing a single media item (title, ext,
//     upload_date and its derived forms);
//   - the variables of the entry's [Source], such as channel for YouTube or
//     artist for SoundCloud.
//
// Override templates from configuration are layered on top, and every
// declared name V receives a companion V_sanitized that evaluates to
// %sanitize(V).
package entry
