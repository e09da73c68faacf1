package types

// EntryKind distinguishes files from directories in a listing.
type EntryKind string

const (
	KindFile      EntryKind = "file"
	KindDirectory EntryKind = "dir"
)

type (
	// DirectoryEntry is one child of a listed directory.
	DirectoryEntry struct {
		Name    string    `json:"name"`
		Path    string    `json:"path"`
		Kind    EntryKind `json:"kind"`
		Symlink bool      `json:"symlink,omitempty"`
	}

	// Crumb is one step of the breadcrumb trail above a listed directory.
	Crumb struct {
		Label string `json:"label"`
		Path  string `json:"path"`
	}

	// Listing contains the files and directories in a directory.
	Listing struct {
		Path        string           `json:"path"`
		Parent      string           `json:"parent,omitempty"`
		Breadcrumb  []Crumb          `json:"breadcrumb"`
		Directories []DirectoryEntry `json:"dirs"`
		Files       []DirectoryEntry `json:"files"`
	}

	// PathFilterConfig contains configuration for the path filter.
	PathFilterConfig struct {
		HiddenPrefix    *string  `json:"hiddenPrefix,omitempty"`
		IgnoredPatterns []string `json:"ignoredPatterns"`
		NoteExtensions  []string `json:"noteExtensions"`
	}
)

// IsDir reports whether the entry is a directory.
func (e DirectoryEntry) IsDir() bool {
	return e.Kind == KindDirectory
}
