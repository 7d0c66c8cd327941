// Package traverse implements the resource traversal engine: the
// depth-first walk that turns a root URL into a tree of fetched,
// classified, persisted, searched, and derived resources.
//
// The walk is strictly sequential. Each node completes fully (fetch or
// cache load, preprocess, persist, search, derive, expand) before its
// next sibling starts, so search output appears in document order.
package traverse
