// Package model defines the data structures for C test generation.
package model

// Path represents a file system path.
type Path string

// FunctionSignature is a lexically extracted C function definition.
// SignatureText is a display form only; parameters are never parsed.
type FunctionSignature struct {
	Name          string
	ReturnType    string
	SignatureText string
}

// SourceFact holds the structural facts extracted from one C source file.
// Facts are recomputed on every analysis call and never mutated afterwards.
// Includes keep file order and may contain duplicates; Functions keep match
// order and repeated names are all retained.
type SourceFact struct {
	FilePath          Path
	Functions         []FunctionSignature
	Includes          []string
	CalledIdentifiers []string
	FileDependencies  []Path
}

// DefinedNames returns the set of function names defined in this file.
func (f SourceFact) DefinedNames() map[string]struct{} {
	names := make(map[string]struct{}, len(f.Functions))
	for _, fn := range f.Functions {
		names[fn.Name] = struct{}{}
	}

	return names
}

// DependencyMap maps a function name to the file that defines it, across the
// whole repository. It is built once per run and treated as read-only from
// then on, so it may be shared across concurrent per-file pipelines without
// locking. Name collisions are last-writer-wins in enumeration order.
type DependencyMap map[string]Path
