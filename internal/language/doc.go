// Package language normalizes stream language codes.
//
// ffmpeg stores the language metadata of a stream verbatim, and players
// expect ISO 639-2 codes. This package maps 2-letter codes, bibliographic
// variants and English names onto the 3-letter form written to
// -metadata:s:<type>:<n> language=.
package language
