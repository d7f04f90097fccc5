package ignorer

import "strings"

// Ignorer is an interface for conditionally ignoring files or directory trees
// when staging a workspace.
type Ignorer interface {
	// Ignore returns true to ignore a file, and false to include the file.
	Ignore(absPath, relPath string) bool
}

// NewAny returns an Ignorer implementation that returns true if any of the
// provided ignorers return true.
func NewAny(ignorers ...Ignorer) Ignorer {
	return ignoreIfAny(ignorers)
}

type ignoreIfAny []Ignorer

func (m ignoreIfAny) Ignore(absPath, relPath string) bool {
	for _, i := range m {
		if i.Ignore(absPath, relPath) {
			return true
		}
	}
	return false
}

// NewDirNames returns an Ignorer that ignores any path whose first path
// element matches one of the given names, such as ".git".
func NewDirNames(names ...string) Ignorer {
	return dirNamesIgnorer(names)
}

type dirNamesIgnorer []string

func (m dirNamesIgnorer) Ignore(_, relPath string) bool {
	first, _, _ := strings.Cut(relPath, "/")
	for _, name := range m {
		if first == name {
			return true
		}
	}
	return false
}
