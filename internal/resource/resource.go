package resource

import (
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// IndexFileName is the file name used for network URLs whose path has
// no basename ("http://host/" and friends).
const IndexFileName = "index.html"

// dirPerm is the mode for eagerly created storage directories.
const dirPerm = 0o750

// filePerm is the mode for persisted resource content.
const filePerm = 0o640

// Resource is a node in the traversal tree.
//
// Identity (URL, origin, storage paths) is computed once at construction
// and never changes. Type is assigned at most once. The parent reference
// is non-owning: ownership of a resource's lifetime belongs to the
// traversal call stack, never to its children.
type Resource struct {
	// URL is the resolved absolute locator. For embedded resources this
	// is the data descriptor string rather than a fetchable URL.
	URL string

	// Parent is the resource that produced this one. Nil for the root.
	// Used only to read the parent's storage path and to tick its
	// embedded-child counter.
	Parent *Resource

	// Origin is the scheme+host of the URL that produced the resource.
	// Embedded resources inherit their parent's origin.
	Origin string

	// RelPath is the storage path relative to the storage root, using
	// forward slashes. This is the key under which the resource is
	// registered in the cache.
	RelPath string

	// AbsPath is the absolute on-disk storage path.
	AbsPath string

	// Type is the semantic type. Zero until classification for network
	// resources; set at construction for embedded and derived ones.
	Type Type

	// Hint is the type the parent expects this resource to have, seeded
	// at construction (a stylesheet url() reference seeds TypeImage).
	// Classification on fetch may disagree; the hint only informs the
	// fetch mode before headers arrive.
	Hint Type

	// Content is the in-memory payload, present once loaded from the
	// network, the cache, or an embedded payload. Released when the
	// resource's subtree completes.
	Content []byte

	// Embedded is true for resources built from a data descriptor or an
	// inline fragment. Embedded resources never perform network I/O.
	Embedded bool

	// Primary is true for the root resource and for embedded resources
	// whose descriptor uses the data scheme. Primary resources are never
	// subject to scope filtering.
	Primary bool

	// SameOrigin is true when this resource's origin equals its
	// parent's, and always true for embedded resources.
	SameOrigin bool

	// Errored is true once a fetch or decode failure occurred. Errored
	// resources are excluded from search and recursion.
	Errored bool

	// seq is the counter for this resource's embedded children. It
	// increments once per child regardless of the child's success, so
	// sequence numbers are never reused.
	seq int
}

// NextSeq returns the next embedded-child sequence number, starting at 0.
func (r *Resource) NextSeq() int {
	n := r.seq
	r.seq++
	return n
}

// NewRemote constructs a resource for a network URL.
//
// The storage path mirrors origin and URL path under the storage root:
// host/url-path-segments/filename, defaulting the file name to
// IndexFileName when the URL path has no basename. The path's directory
// is created eagerly so later writes never fail on a missing parent.
func NewRemote(rawURL string, parent *Resource, storageRoot string) (*Resource, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid resource URL %q: %w", rawURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("resource URL %q is not absolute", rawURL)
	}

	dir, file := path.Split(u.Path)
	if file == "" {
		file = IndexFileName
	}
	relPath := path.Join(u.Host, dir, file)

	r := &Resource{
		URL:     u.String(),
		Parent:  parent,
		Origin:  u.Scheme + "://" + u.Host,
		RelPath: relPath,
		AbsPath: filepath.Join(storageRoot, filepath.FromSlash(relPath)),
		Primary: parent == nil,
	}
	r.SameOrigin = parent == nil || r.Origin == parent.Origin

	if err := os.MkdirAll(filepath.Dir(r.AbsPath), dirPerm); err != nil {
		return nil, fmt.Errorf("failed to create storage directory for %q: %w", relPath, err)
	}

	return r, nil
}

// NewEmbedded constructs a resource from an embedded-data descriptor.
//
// The storage path is the parent's path plus "_category-NNN.ext", where
// NNN is the parent's embedded-child sequence number. The sequence
// number is consumed even when decoding fails, so every embedded child
// of one parent keeps a unique suffix.
//
// A decodable, non-trivial payload is written to the storage path
// immediately: such resources are already loaded the moment they are
// constructed. A bad encoding token marks the resource errored and
// leaves it without content; the returned status tells the caller what
// went wrong.
func NewEmbedded(descriptor string, parent *Resource) (*Resource, DecodeStatus) {
	primary := strings.HasPrefix(descriptor, DataScheme)

	d, status := ParseDescriptor(descriptor)

	// Grammar failures still consume a sequence number and reserve a
	// path, so siblings are unaffected.
	category := d.Category
	ext := d.Ext()
	if status != DecodeOK {
		category = "data"
		ext = "bin"
	}

	r := newChild(parent, category, ext)
	r.URL = descriptor
	r.Primary = primary

	if status != DecodeOK {
		r.Errored = true
		r.Type = TypeFailure
		return r, status
	}

	r.Type = Classify(false, d.MediaType(), "")

	if d.Trivial() {
		// Placeholder payload: content to be supplied by the caller.
		return r, DecodeOK
	}

	b, status := d.Decode()
	if status != DecodeOK {
		r.Errored = true
		r.Type = TypeFailure
		return r, status
	}

	r.Content = b
	if err := os.WriteFile(r.AbsPath, b, filePerm); err != nil {
		r.Errored = true
		r.Type = TypeFailure
		return r, DecodeOK
	}

	return r, DecodeOK
}

// NewChild constructs an embedded child with caller-supplied content:
// inline script and style fragments, deriver outputs, and the synthetic
// response-headers resource. The content is not persisted here; callers
// persist via Persist once the child is ready.
func NewChild(parent *Resource, typ Type, category, ext string, content []byte) *Resource {
	r := newChild(parent, category, ext)
	r.Type = typ
	r.Content = content
	return r
}

// newChild reserves a storage path and sequence number under parent.
func newChild(parent *Resource, category, ext string) *Resource {
	seq := parent.NextSeq()
	name := fmt.Sprintf("%s-%03d.%s", category, seq, ext)

	return &Resource{
		Parent:     parent,
		Origin:     parent.Origin,
		RelPath:    parent.RelPath + "_" + name,
		AbsPath:    parent.AbsPath + "_" + name,
		Embedded:   true,
		SameOrigin: true,
	}
}

// Persist writes the in-memory content to the absolute storage path.
// An empty content slice is meaningful and persisted as an empty file.
func (r *Resource) Persist() error {
	if err := os.WriteFile(r.AbsPath, r.Content, filePerm); err != nil {
		return fmt.Errorf("failed to persist %q: %w", r.RelPath, err)
	}
	return nil
}

// LoadFromDisk fills Content from the storage path, used on cache hits.
func (r *Resource) LoadFromDisk() error {
	b, err := os.ReadFile(r.AbsPath)
	if err != nil {
		return fmt.Errorf("failed to load cached %q: %w", r.RelPath, err)
	}
	r.Content = b
	return nil
}

// Release drops the in-memory content once the resource's subtree has
// completed. The persisted copy on disk remains authoritative.
func (r *Resource) Release() {
	r.Content = nil
}

// Loaded reports whether the resource already carries usable content.
func (r *Resource) Loaded() bool {
	return r.Content != nil
}
