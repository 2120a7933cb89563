// Package discussion defines the read/write surface of the discussion
// platform the bot observes. The live platform client (auth, sessions,
// streaming) lives outside this module; everything here is expressed
// against the Adapter interface so the engine can run over any tree
// source, including the in-memory one under memtree.
package discussion

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/net/html"
)

// ErrForbidden signals a permission failure (thread locked, archived, or
// the bot banned). Callers log and skip; it is never retried.
var ErrForbidden = errors.New("action forbidden")

// Node is a read-only snapshot of one comment, fetched per processing
// pass and discarded after use.
type Node struct {
	ID      string
	Author  string
	Body    string
	Score   int
	ScopeID string
	RootID  string
}

// Root carries the thread root's metadata; its title often already
// explains the reference an acronym stands for.
type Root struct {
	ID    string
	Title string
}

// Message is an inbox item delivered to the bot. Only comment mentions
// are answered; Subject and WasComment let the engine tell those apart
// from private messages and post replies.
type Message struct {
	ID         string
	Author     string
	Subject    string
	Body       string
	WasComment bool
}

// Adapter is the platform surface the engine consumes.
type Adapter interface {
	// Root resolves a thread root by id.
	Root(ctx context.Context, id string) (Root, error)
	// Children returns one page of direct replies under the given node
	// (or root) id, plus the cursor for the next page; an empty cursor
	// means the branch is exhausted.
	Children(ctx context.Context, id, cursor string) ([]Node, string, error)
	// Reply posts a reply under the given node.
	Reply(ctx context.Context, parentID, body string) error
	// Delete removes one of the bot's own nodes.
	Delete(ctx context.Context, id string) error
}

// Text reduces an HTML-bearing body to its visible text. Platforms hand
// back entity-escaped markup in message payloads; matching runs on the
// rendered text. Unparseable input is returned as-is.
func Text(body string) string {
	if !strings.ContainsAny(body, "<&") {
		return body
	}

	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return body
	}

	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return strings.TrimSpace(buf.String())
}
