// Package guard decides whether a matched acronym still warrants a reply,
// by checking whether the thread already explains it.
package guard

import (
	"context"
	"strings"

	"github.com/everettsouthwick/songacronymbot/pkg/acrobot/discussion"
	"github.com/everettsouthwick/songacronymbot/pkg/acrobot/store"
)

// DefaultMaxNodes bounds how many nodes one decision may visit.
const DefaultMaxNodes = 2000

// Guard walks a discussion's reply tree looking for an existing
// definition or an earlier reply of the bot's own.
type Guard struct {
	platform discussion.Adapter
	self     string
	maxNodes int
}

// New creates a guard. selfUser is the bot's own account name; maxNodes
// caps traversal (DefaultMaxNodes when <= 0).
func New(platform discussion.Adapter, selfUser string, maxNodes int) *Guard {
	if maxNodes <= 0 {
		maxNodes = DefaultMaxNodes
	}
	return &Guard{platform: platform, self: selfUser, maxNodes: maxNodes}
}

// ShouldReply reports whether a match on the given acronym, found in the
// given node's thread, still needs a definition reply.
//
// An acronym with no definition text has nothing to deduplicate against
// and is always replied to. Otherwise the reply is suppressed when the
// root title already contains the definition, when any node in the tree
// contains it, or when one of the bot's own nodes already names the
// acronym. Fetch failures for a branch count as "nothing found there";
// the visited set and node budget guarantee termination even if the
// platform hands back re-linked or cyclic edges.
func (g *Guard) ShouldReply(ctx context.Context, node discussion.Node, a store.Acronym) bool {
	definition := a.Definition()
	if definition == "" {
		return true
	}

	rootID := node.RootID
	root, err := g.platform.Root(ctx, rootID)
	if err == nil {
		if strings.Contains(strings.ToLower(root.Title), definition) {
			return false
		}
		rootID = root.ID
	}
	if rootID == "" {
		return true
	}

	name := strings.ToLower(a.Name)
	visited := map[string]struct{}{rootID: {}}
	queue := []string{rootID}
	budget := g.maxNodes

	for len(queue) > 0 && budget > 0 {
		id := queue[0]
		queue = queue[1:]

		cursor := ""
		for budget > 0 {
			page, next, err := g.platform.Children(ctx, id, cursor)
			if err != nil {
				// Partial tree; nothing found in this branch.
				break
			}
			for _, child := range page {
				if _, seen := visited[child.ID]; seen {
					continue
				}
				visited[child.ID] = struct{}{}
				budget--

				body := strings.ToLower(child.Body)
				if strings.Contains(body, definition) {
					return false
				}
				if strings.EqualFold(child.Author, g.self) && strings.Contains(body, name) {
					return false
				}

				queue = append(queue, child.ID)
				if budget <= 0 {
					break
				}
			}
			if next == "" {
				break
			}
			cursor = next
		}
	}

	return true
}
