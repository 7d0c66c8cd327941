package resource

// Type is the semantic type of a resource.
// It is assigned exactly once, either at classification time (network
// resources) or at construction time (embedded and derived resources),
// and thereafter gates which pipeline steps apply.
type Type string

// All resource types. The string values appear verbatim in the cache
// file, so they must remain stable across releases.
const (
	// TypePage is an HTML document. Only the root resource can be a page;
	// a page never spawns another page (no spidering).
	TypePage Type = "page"

	// TypeImage is any image response (content type starting with "image").
	TypeImage Type = "image"

	// TypeScript is an external JavaScript resource.
	TypeScript Type = "script"

	// TypeStyle is an external CSS stylesheet.
	TypeStyle Type = "style"

	// TypeInlineScript is the body of a <script> element without a src
	// attribute, materialized as an embedded child of its page.
	TypeInlineScript Type = "inline-script"

	// TypeInlineStyle is the body of a <style> element, materialized as
	// an embedded child of its page.
	TypeInlineStyle Type = "inline-style"

	// TypeDerived is an artifact produced by a deriver tool (EXIF dump,
	// OCR text, ...). Derived resources are always leaves.
	TypeDerived Type = "derived"

	// TypeOther is any successfully fetched resource that matches no
	// more specific type.
	TypeOther Type = "other"

	// TypeFailure marks a resource whose fetch or decode failed.
	TypeFailure Type = "failure"

	// TypeUndefined marks a response with a missing or unparsable
	// content type. Undefined resources are inert: excluded from
	// pipelines, search, and expansion.
	TypeUndefined Type = "undefined"
)

// Valid reports whether t is one of the known resource types.
// Used when loading cache entries from disk, where the type names come
// from an untrusted file.
func (t Type) Valid() bool {
	switch t {
	case TypePage, TypeImage, TypeScript, TypeStyle, TypeInlineScript,
		TypeInlineStyle, TypeDerived, TypeOther, TypeFailure, TypeUndefined:
		return true
	}
	return false
}

// String returns the type name as stored in the cache file.
func (t Type) String() string {
	return string(t)
}
