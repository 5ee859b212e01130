package domain

import (
	"fmt"
	"log/slog"

	"ctestgen.dev/pkg/ctestgen/internal/adapter"
	m "ctestgen.dev/pkg/ctestgen/internal/model"
)

// Resolver builds the repository-wide dependency map and computes per-file
// stub requirements from it.
type Resolver struct {
	fs        adapter.SourceFSAdapter
	extractor *Extractor
}

// NewResolver constructs a Resolver using the given extractor.
func NewResolver(fs adapter.SourceFSAdapter, extractor *Extractor) *Resolver {
	return &Resolver{
		fs:        fs,
		extractor: extractor,
	}
}

// EnumerateSourceFiles lists the production .c files beneath the src subtree
// of root. It fails only when root itself is unusable; unreadable entries are
// skipped.
func (r *Resolver) EnumerateSourceFiles(root m.Path) ([]m.Path, error) {
	if _, err := r.fs.FileInfo(root); err != nil {
		return nil, fmt.Errorf("repository path error: %w", err)
	}

	return r.fs.EnumerateSourceFiles(root)
}

// BuildDependencyMap runs the function-signature pass over every enumerated
// file and folds results into a name -> owning-file map. Later files overwrite
// earlier ones on collision. The map is built once per run and must be treated
// as read-only afterwards.
func (r *Resolver) BuildDependencyMap(root m.Path) (m.DependencyMap, error) {
	files, err := r.EnumerateSourceFiles(root)
	if err != nil {
		return nil, err
	}

	depMap := make(m.DependencyMap)

	for _, file := range files {
		fact := r.extractor.Analyze(file)
		for _, fn := range fact.Functions {
			depMap[fn.Name] = file
		}
	}

	slog.Debug("built dependency map", "functions", len(depMap), "files", len(files))

	return depMap, nil
}

// ComputeStubRequirements returns the called identifiers of fact that are not
// defined locally, are known to the dependency map, and are owned by a file
// other than fact's own. Order follows the call scan, not sorted.
func (r *Resolver) ComputeStubRequirements(fact m.SourceFact, depMap m.DependencyMap) []string {
	local := fact.DefinedNames()

	var stubs []string

	for _, called := range fact.CalledIdentifiers {
		if _, defined := local[called]; defined {
			continue
		}

		owner, known := depMap[called]
		if !known || owner == fact.FilePath {
			continue
		}

		stubs = append(stubs, called)
	}

	return stubs
}
