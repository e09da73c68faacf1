package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/taigrr/obsidian-search/internal/vaulterr"
)

// toolError tags err with its kind so callers can tell a refused path
// from a missing one.
func toolError(err error) error {
	return fmt.Errorf("%s: %w", vaulterr.Kind(err), err)
}

func handleList(ctx context.Context, req *mcp.CallToolRequest, input ListInput) (*mcp.CallToolResult, ListOutput, error) {
	listing, err := vaultService.ListDirectory(strings.TrimSpace(input.Path))
	if err != nil {
		return &mcp.CallToolResult{IsError: true}, ListOutput{}, toolError(err)
	}

	return nil, ListOutput{
		Path:        listing.Path,
		Parent:      listing.Parent,
		Directories: listing.Directories,
		Files:       listing.Files,
	}, nil
}

func handleSearch(ctx context.Context, req *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, SearchOutput, error) {
	results, err := vaultService.SearchVault(ctx, input.Query, strings.TrimSpace(input.Scope))
	if err != nil {
		return &mcp.CallToolResult{IsError: true}, SearchOutput{}, toolError(err)
	}

	total := len(results)
	limit := input.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	offset := max(input.Offset, 0)

	if offset >= total {
		return nil, SearchOutput{Results: []SearchHit{}, TotalFiles: total}, nil
	}
	end := min(offset+limit, total)

	hits := make([]SearchHit, 0, end-offset)
	for _, r := range results[offset:end] {
		hit := SearchHit{
			Path:    r.Path,
			AbsPath: r.AbsPath,
			Title:   r.Title,
			Score:   r.Score,
			Link:    r.Link,
		}
		for _, sn := range r.Snippets {
			hit.Snippets = append(hit.Snippets, sn.Highlight("**", "**"))
		}
		hits = append(hits, hit)
	}

	return nil, SearchOutput{
		Results:    hits,
		TotalFiles: total,
		HasMore:    end < total,
	}, nil
}

func handleLink(ctx context.Context, req *mcp.CallToolRequest, input LinkInput) (*mcp.CallToolResult, LinkOutput, error) {
	path := strings.TrimSpace(input.Path)
	link, err := vaultService.ResolveDeepLink(path)
	if err != nil {
		return &mcp.CallToolResult{IsError: true}, LinkOutput{Path: path}, toolError(err)
	}

	return nil, LinkOutput{Path: path, Link: link}, nil
}

func handleRead(ctx context.Context, req *mcp.CallToolRequest, input ReadInput) (*mcp.CallToolResult, ReadOutput, error) {
	note, err := vaultService.ReadNote(strings.TrimSpace(input.Path))
	if err != nil {
		return &mcp.CallToolResult{IsError: true}, ReadOutput{}, toolError(err)
	}

	out := ReadOutput{
		Path:        note.Path,
		Title:       note.Title,
		Frontmatter: note.Frontmatter,
		Link:        note.Link,
	}

	lines := strings.Split(note.Content, "\n")
	out.TotalLines = len(lines)

	offset := max(input.Offset, 0)
	if offset >= out.TotalLines {
		out.Truncated = true
		return nil, out, nil
	}

	limit := input.Limit
	if limit <= 0 {
		limit = out.TotalLines
	}
	end := offset + limit
	if end >= out.TotalLines {
		end = out.TotalLines
	} else {
		out.Truncated = true
	}

	out.Content = strings.Join(lines[offset:end], "\n")
	return nil, out, nil
}
