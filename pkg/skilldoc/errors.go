package skilldoc

import "github.com/pkg/errors"

// Sentinel parse errors. Lint rules and other callers branch on these
// with errors.Is.
var (
	// ErrNoFrontMatter indicates the document does not start with a YAML front matter block
	ErrNoFrontMatter = errors.New("missing front matter")
	// ErrInvalidFrontMatter indicates the front matter is not parseable YAML
	ErrInvalidFrontMatter = errors.New("invalid front matter")
	// ErrMissingName indicates the front matter has no name
	ErrMissingName = errors.New("name is required in front matter")
	// ErrMissingDescription indicates the front matter has no description
	ErrMissingDescription = errors.New("description is required in front matter")
)
