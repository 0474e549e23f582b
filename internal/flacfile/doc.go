// Package flacfile reads and rewrites the metadata region of FLAC files.
//
// The go-flac library owns the block wire format; this package owns
// everything around it: locating the audio frame region without loading it,
// capturing ID3v1/ID3v2 tags that sit outside the FLAC container, decoding
// streaminfo for validation, and the atomic temp-file-and-rename rewrite
// that keeps the audio bytes identical.
//
// Failures are tagged with ErrFormat or ErrIO so callers can classify them
// without string matching.
package flacfile
