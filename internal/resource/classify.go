package resource

import (
	"path"
	"strings"
)

// Classify maps response metadata to exactly one resource type.
//
// Precedence is fixed: failure > image > style > script > page > other,
// regardless of how types are ordered anywhere else. The script rule
// fires for an explicit JavaScript content type, or for the generic
// content types servers commonly mislabel scripts with (octet-stream,
// plain text, html) combined with a .js URL extension. That generic
// branch is evaluated before the page branch on purpose: a text/html
// response for a .js URL classifies as script, never as page. This
// mirrors the branch order the tool has always used and is covered by a
// dedicated test; do not "fix" it by reordering.
//
// A missing or unparsable content type yields TypeUndefined, which
// excludes the resource from pipelines, search, and expansion.
func Classify(errored bool, contentType, urlPath string) Type {
	if errored {
		return TypeFailure
	}

	// Reduce "text/html; charset=utf-8" to its media type token.
	mediaType := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(mediaType, ";"); i >= 0 {
		mediaType = strings.TrimSpace(mediaType[:i])
	}
	if mediaType == "" || !strings.Contains(mediaType, "/") {
		return TypeUndefined
	}

	ext := strings.ToLower(path.Ext(urlPath))

	switch {
	case strings.HasPrefix(mediaType, "image"):
		return TypeImage
	case strings.Contains(mediaType, "text/css"):
		return TypeStyle
	case strings.Contains(mediaType, "application/javascript"):
		return TypeScript
	case ext == ".js" && isScriptCompatible(mediaType):
		return TypeScript
	case strings.Contains(mediaType, "text/html"):
		return TypePage
	default:
		return TypeOther
	}
}

// isScriptCompatible reports whether a content type is one of the
// generic types that a .js extension is allowed to reclassify as script.
// A generic response is only ever reclassified to script via the
// extension check, never to any other type.
func isScriptCompatible(mediaType string) bool {
	switch mediaType {
	case "application/octet-stream", "text/plain", "text/html":
		return true
	}
	return false
}
