package resource

import (
	"encoding/base64"
	"net/url"
	"strings"
)

// DataScheme is the URI scheme prefix marking a true data URI.
// Embedded resources built from a data URI are primary: they are never
// subject to origin scope filtering.
const DataScheme = "data:"

// DecodeStatus is the outcome of decoding an embedded-data descriptor.
// An explicit result type is used instead of error values because a
// failed decode is a normal, per-resource condition: the resource is
// marked errored and its siblings proceed untouched.
type DecodeStatus int

const (
	// DecodeOK means the payload decoded successfully.
	DecodeOK DecodeStatus = iota

	// DecodeBadEncoding means the descriptor named an encoding other
	// than "base64" or "none".
	DecodeBadEncoding

	// DecodeBadGrammar means the descriptor matched neither the primary
	// grammar "category/subtype;encoding,payload" nor the fallback
	// "category/subtype,percent-encoded-payload".
	DecodeBadGrammar
)

// Descriptor is a parsed embedded-data descriptor.
//
// The primary grammar is "category/subtype;encoding,payload" with
// encoding "base64" or "none". When that split fails, the fallback
// grammar "category/subtype,payload" is tried, with the payload
// percent-decoded (the form inline SVG data URIs use, e.g.
// "image/svg+xml,%3Csvg...").
type Descriptor struct {
	// Category is the media type's primary token ("image", "text", ...).
	// It names the embedded child in its parent-relative storage path.
	Category string

	// Subtype is the media type's secondary token ("png", "svg+xml", ...).
	Subtype string

	// Encoding is the declared payload encoding: "base64" or "none".
	// The fallback grammar implies "none".
	Encoding string

	// Payload is the raw, still-encoded payload text.
	Payload string

	// percentEncoded marks a payload from the fallback grammar, which
	// is percent-decoded rather than passed through verbatim.
	percentEncoded bool
}

// ParseDescriptor parses an embedded-data descriptor, with or without
// its leading "data:" prefix.
func ParseDescriptor(s string) (Descriptor, DecodeStatus) {
	s = strings.TrimPrefix(s, DataScheme)

	var d Descriptor
	var mediaType string

	if i := strings.Index(s, ";"); i >= 0 {
		// Primary grammar: category/subtype;encoding,payload
		mediaType = s[:i]
		rest := s[i+1:]
		j := strings.Index(rest, ",")
		if j < 0 {
			return Descriptor{}, DecodeBadGrammar
		}
		d.Encoding = rest[:j]
		d.Payload = rest[j+1:]
	} else {
		// Fallback grammar: category/subtype,percent-encoded-payload
		j := strings.Index(s, ",")
		if j < 0 {
			return Descriptor{}, DecodeBadGrammar
		}
		mediaType = s[:j]
		d.Encoding = "none"
		d.Payload = s[j+1:]
		d.percentEncoded = true
	}

	category, subtype, ok := strings.Cut(mediaType, "/")
	if !ok || category == "" {
		return Descriptor{}, DecodeBadGrammar
	}
	d.Category = category
	d.Subtype = subtype

	return d, DecodeOK
}

// MediaType returns the descriptor's "category/subtype" media type,
// suitable for classification.
func (d Descriptor) MediaType() string {
	return d.Category + "/" + d.Subtype
}

// Ext returns the file extension derived from the subtype.
// Structured-syntax suffixes are dropped: "svg+xml" yields "svg".
func (d Descriptor) Ext() string {
	ext, _, _ := strings.Cut(d.Subtype, "+")
	if ext == "" {
		ext = "bin"
	}
	return ext
}

// Trivial reports whether the payload carries no usable content: empty,
// or consisting solely of separator and placeholder characters. A
// trivial payload leaves the resource "not yet loaded" for the caller
// to fill in.
func (d Descriptor) Trivial() bool {
	return strings.Trim(d.Payload, " \t\r\n,;#") == ""
}

// Decode decodes the payload according to the declared encoding.
// Any encoding token other than "base64" or "none" is a DecodeBadEncoding
// result; no decoding is attempted for it.
func (d Descriptor) Decode() ([]byte, DecodeStatus) {
	switch d.Encoding {
	case "base64":
		b, err := base64.StdEncoding.DecodeString(d.Payload)
		if err != nil {
			// Some generators omit padding.
			b, err = base64.RawStdEncoding.DecodeString(d.Payload)
			if err != nil {
				return nil, DecodeBadEncoding
			}
		}
		return b, DecodeOK
	case "none":
		if d.percentEncoded {
			s, err := url.PathUnescape(d.Payload)
			if err != nil {
				// Stray % sequences: keep the payload as-is rather
				// than losing the content.
				return []byte(d.Payload), DecodeOK
			}
			return []byte(s), DecodeOK
		}
		return []byte(d.Payload), DecodeOK
	default:
		return nil, DecodeBadEncoding
	}
}
