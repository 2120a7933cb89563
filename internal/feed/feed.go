// Package feed loads recorded discussion snapshots from JSONL files and
// replays them through the in-memory tree, so the engine can run offline
// against captured threads.
package feed

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/everettsouthwick/songacronymbot/pkg/acrobot/discussion"
	"github.com/everettsouthwick/songacronymbot/pkg/acrobot/discussion/memtree"
)

// Record is one line of a recorded discussion snapshot. A record with an
// empty ParentID and a Title is a thread root; everything else is a
// comment under ParentID.
type Record struct {
	ID       string `json:"id"`
	ParentID string `json:"parent_id"`
	RootID   string `json:"root_id"`
	Title    string `json:"title"`
	Author   string `json:"author"`
	Body     string `json:"body"`
	Score    int    `json:"score"`
	ScopeID  string `json:"scope_id"`
}

// LoadFromJSONL loads records from a JSONL file with proper error handling
func LoadFromJSONL(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file %s: %w", path, err)
	}

	var records []Record
	lines := strings.Split(string(data), "\n")

	for i, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var rec Record
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			log.Printf("Warning: skipping malformed JSON at line %d in %s: %v", i+1, path, err)
			continue
		}
		if rec.ID == "" {
			log.Printf("Warning: skipping record without id at line %d in %s", i+1, path)
			continue
		}
		records = append(records, rec)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("no valid records found in %s", path)
	}

	return records, nil
}

// Build assembles the records into an in-memory tree and returns the
// non-root nodes in file order, ready to stream through the engine.
func Build(records []Record) (*memtree.Tree, []discussion.Node) {
	tree := memtree.New(0)

	var nodes []discussion.Node
	for _, rec := range records {
		if rec.ParentID == "" && rec.Title != "" {
			tree.AddRoot(discussion.Root{ID: rec.ID, Title: rec.Title})
			continue
		}

		n := discussion.Node{
			ID:      rec.ID,
			Author:  rec.Author,
			Body:    rec.Body,
			Score:   rec.Score,
			ScopeID: rec.ScopeID,
			RootID:  rec.RootID,
		}
		tree.AddNode(rec.ParentID, n)
		nodes = append(nodes, n)
	}
	return tree, nodes
}
