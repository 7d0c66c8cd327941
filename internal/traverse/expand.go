package traverse

import (
	"bytes"
	"context"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/nao1215/webgrep/internal/resource"
)

// cssURLPattern matches url(...) references in stylesheet content,
// capturing the reference without surrounding quotes.
var cssURLPattern = regexp.MustCompile(`url\(\s*['"]?([^'")\s]+)['"]?\s*\)`)

// expandPage parses the page markup and visits every referenced image,
// script, and stylesheet in document order. Inline <script> and <style>
// bodies become embedded children.
func (c *Controller) expandPage(ctx context.Context, page *resource.Resource) {
	doc, err := html.Parse(bytes.NewReader(page.Content))
	if err != nil {
		c.logger.Warn("failed to parse page markup", "path", page.RelPath, "error", err)
		return
	}
	c.walkPage(ctx, page, doc)
}

// walkPage recurses the parsed DOM depth-first, which is document order
// for the references it collects.
func (c *Controller) walkPage(ctx context.Context, page *resource.Resource, n *html.Node) {
	if ctx.Err() != nil {
		return
	}

	if n.Type == html.ElementNode {
		switch n.Data {
		case "img":
			if src := attrValue(n, "src"); src != "" {
				c.visitReference(ctx, page, src, resource.TypeImage)
			}
		case "script":
			if src := attrValue(n, "src"); src != "" {
				c.visitReference(ctx, page, src, resource.TypeScript)
			} else if body := textContent(n); strings.TrimSpace(body) != "" {
				c.visitInline(ctx, page, resource.TypeInlineScript, "script", "js", []byte(body))
			}
		case "link":
			if strings.EqualFold(attrValue(n, "rel"), "stylesheet") {
				if href := attrValue(n, "href"); href != "" {
					c.visitReference(ctx, page, href, resource.TypeStyle)
				}
			}
		case "style":
			if body := textContent(n); strings.TrimSpace(body) != "" {
				c.visitInline(ctx, page, resource.TypeInlineStyle, "style", "css", []byte(body))
			}
		}
	}

	for child := n.FirstChild; child != nil; child = child.NextSibling {
		c.walkPage(ctx, page, child)
	}
}

// expandStyle scans stylesheet content for url(...) references and
// visits each as an image-seeded child. In-document anchors are not
// resources and are skipped.
func (c *Controller) expandStyle(ctx context.Context, sheet *resource.Resource) {
	for _, m := range cssURLPattern.FindAllSubmatch(sheet.Content, -1) {
		ref := strings.TrimSpace(string(m[1]))
		if ref == "" || strings.HasPrefix(ref, "#") {
			continue
		}
		c.visitReference(ctx, sheet, ref, resource.TypeImage)
	}
}

// visitReference turns one reference found in parent's content into a
// child resource and visits it. Data descriptors become embedded
// children; everything else resolves against the parent's own URL.
func (c *Controller) visitReference(ctx context.Context, parent *resource.Resource, ref string, hint resource.Type) {
	if strings.HasPrefix(ref, resource.DataScheme) {
		child, status := resource.NewEmbedded(ref, parent)
		if status != resource.DecodeOK {
			c.logger.Warn("failed to decode embedded data",
				"parent", parent.RelPath,
				"reason", decodeStatusText(status),
			)
		}
		c.visit(ctx, child)
		return
	}

	abs := resolveRef(parent.URL, ref)
	if abs == "" {
		c.logger.Debug("skipping unresolvable reference", "parent", parent.RelPath, "ref", ref)
		return
	}

	child, err := resource.NewRemote(abs, parent, c.storageRoot)
	if err != nil {
		c.logger.Warn("skipping reference", "parent", parent.RelPath, "ref", ref, "error", err)
		return
	}
	child.Hint = hint
	c.visit(ctx, child)
}

// visitInline materializes an inline fragment as an embedded child and
// visits it. Inline fragments are searched but never expanded.
func (c *Controller) visitInline(ctx context.Context, page *resource.Resource, typ resource.Type, category, ext string, content []byte) {
	child := resource.NewChild(page, typ, category, ext, content)
	if err := child.Persist(); err != nil {
		c.logger.Warn("failed to persist inline fragment", "path", child.RelPath, "error", err)
		return
	}
	c.visit(ctx, child)
}

// resolveRef resolves ref against baseURL and returns the absolute URL,
// or empty when the result is not fetchable over HTTP.
func resolveRef(baseURL, ref string) string {
	base, err := url.Parse(baseURL)
	if err != nil {
		return ""
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ""
	}

	resolved := base.ResolveReference(r)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	return resolved.String()
}

// attrValue returns the trimmed value of the named attribute, or empty.
func attrValue(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, name) {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}

// textContent concatenates the element's direct text children.
func textContent(n *html.Node) string {
	var sb strings.Builder
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.TextNode {
			sb.WriteString(child.Data)
		}
	}
	return sb.String()
}

// decodeStatusText names a decode failure for log output.
func decodeStatusText(status resource.DecodeStatus) string {
	switch status {
	case resource.DecodeBadEncoding:
		return "unsupported encoding"
	case resource.DecodeBadGrammar:
		return "malformed descriptor"
	default:
		return "unknown"
	}
}
