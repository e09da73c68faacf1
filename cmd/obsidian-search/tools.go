package main

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/taigrr/obsidian-search/internal/types"
)

type (
	// ListInput contains parameters for listing a directory.
	ListInput struct {
		Path string `json:"path,omitempty" jsonschema:"Directory relative to the browse root (default: root)"`
	}

	// ListOutput contains a directory listing.
	ListOutput struct {
		Path        string                 `json:"path"`
		Parent      string                 `json:"parent,omitempty"`
		Directories []types.DirectoryEntry `json:"dirs"`
		Files       []types.DirectoryEntry `json:"files"`
	}

	// SearchInput contains parameters for searching notes.
	SearchInput struct {
		Query  string `json:"query" jsonschema:"Whitespace-separated terms, matched case-insensitively"`
		Scope  string `json:"scope,omitempty" jsonschema:"Directory to search (default: browse root)"`
		Limit  int    `json:"limit,omitempty" jsonschema:"Maximum results (default: 15)"`
		Offset int    `json:"offset,omitempty" jsonschema:"Skip first N results for pagination (default: 0)"`
	}

	// SearchHit is one ranked note. Matches in snippets are wrapped in **.
	SearchHit struct {
		Path     string   `json:"path"`
		AbsPath  string   `json:"absPath"`
		Title    string   `json:"title"`
		Score    int      `json:"score"`
		Snippets []string `json:"snippets,omitempty"`
		Link     string   `json:"link,omitempty"`
	}

	// SearchOutput contains ranked search results.
	SearchOutput struct {
		Results    []SearchHit `json:"results"`
		TotalFiles int         `json:"totalFiles"`
		HasMore    bool        `json:"hasMore,omitempty"`
	}

	// LinkInput contains parameters for building a deep link.
	LinkInput struct {
		Path string `json:"path" jsonschema:"Note path relative to the browse root, or absolute"`
	}

	// LinkOutput contains an obsidian:// deep link.
	LinkOutput struct {
		Path string `json:"path"`
		Link string `json:"link"`
	}

	// ReadInput contains parameters for reading a note.
	ReadInput struct {
		Path   string `json:"path" jsonschema:"Path to the note relative to the browse root"`
		Offset int    `json:"offset,omitempty" jsonschema:"Line offset to start reading from (default: 0)"`
		Limit  int    `json:"limit,omitempty" jsonschema:"Maximum number of lines to return (default: all)"`
	}

	// ReadOutput contains the result of reading a note.
	ReadOutput struct {
		Path        string         `json:"path"`
		Title       string         `json:"title"`
		Frontmatter map[string]any `json:"fm,omitempty"`
		Content     string         `json:"content"`
		TotalLines  int            `json:"totalLines"`
		Truncated   bool           `json:"truncated,omitempty"`
		Link        string         `json:"link,omitempty"`
	}
)

const defaultSearchLimit = 15

func registerTools(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list",
		Description: "List the subdirectories and files of a directory. Hidden and ignored entries are omitted.",
	}, handleList)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search",
		Description: "Ranked full-text search of the notes under a directory. File name matches weigh more than body matches. Returns highlighted snippets and deep links when configured.",
	}, handleSearch)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "link",
		Description: "Build an obsidian:// deep link that opens a note in the Obsidian app.",
	}, handleLink)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "read",
		Description: "Read a note. Returns frontmatter and content. Supports pagination with offset/limit for large files.",
	}, handleRead)
}
