// Package builder defines the declarative description of an encode job.
//
// A State aggregates inputs, the output, codec settings, filter chains,
// stream mappings and global options. States are plain values: the
// validation and command packages read them but never mutate them. The
// catalog helpers expose the closed sets (codecs, containers, channel
// layouts, filter types, URL schemes) that both consumers share.
package builder
