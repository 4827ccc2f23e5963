package rule

import (
	"fmt"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// DefaultExtensions are the file extensions recognized as rule documents.
var DefaultExtensions = []string{".mdc", ".md"}

// Reason explains why a document was selected by [RuleSet.Resolve].
type Reason string

const (
	// ReasonExplicit means the caller requested the identifier.
	ReasonExplicit Reason = "explicit"
	// ReasonAlwaysApply means the document is active for every target.
	ReasonAlwaysApply Reason = "always-apply"
	// ReasonGlob means one of the document's globs matched the target.
	ReasonGlob Reason = "glob"
)

// Match pairs a selected document with the highest-priority reason it was
// selected.
type Match struct {
	Document *Document
	Reason   Reason
}

// RuleSet is an immutable collection of rule documents keyed by identifier.
// It is safe for concurrent readers; there is no mutation API.
type RuleSet struct {
	docs    map[string]*Document
	root    string
	absRoot string
	ids     []string // Sorted.
	issues  []error
}

type loadOptions struct {
	extensions []string
}

// LoadOpt configures [Load].
type LoadOpt func(*loadOptions)

// WithExtensions overrides the recognized rule document extensions.
func WithExtensions(exts ...string) LoadOpt {
	return func(o *loadOptions) {
		if len(exts) > 0 {
			o.extensions = exts
		}
	}
}

func resolveLoadOptions(opts []LoadOpt) *loadOptions {
	o := &loadOptions{extensions: DefaultExtensions}
	for _, opt := range opts {
		opt(o)
	}

	return o
}

// Load builds a [RuleSet] from the directory tree rooted at root. A missing
// or unreadable root fails the load; individual malformed documents are
// skipped, logged, and recorded in [RuleSet.Issues]. A directory with no
// valid documents yields an empty set, not an error.
func Load(root string, opts ...LoadOpt) (*RuleSet, error) {
	o := resolveLoadOptions(opts)

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("rules root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("rules root %s: not a directory", root)
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("rules root: %w", err)
	}

	rs := &RuleSet{
		root:    root,
		absRoot: absRoot,
		docs:    map[string]*Document{},
	}

	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		return rs.loadEntry(o, p, d, walkErr)
	})
	if err != nil {
		return nil, fmt.Errorf("walk rules root: %w", err)
	}

	rs.ids = slices.Sorted(maps.Keys(rs.docs))

	slog.Debug("loaded rule set",
		slog.String("root", root),
		slog.Int("documents", len(rs.docs)),
		slog.Int("skipped", len(rs.issues)),
	)

	return rs, nil
}

func (rs *RuleSet) loadEntry(o *loadOptions, p string, d fs.DirEntry, walkErr error) error {
	if walkErr != nil {
		if p == rs.root {
			return walkErr
		}

		slog.Warn("skip unreadable path",
			slog.String("path", p),
			slog.Any("err", walkErr),
		)
		rs.issues = append(rs.issues, fmt.Errorf("read %s: %w", p, walkErr))

		if d != nil && d.IsDir() {
			return fs.SkipDir
		}

		return nil
	}

	if d.IsDir() {
		if p != rs.root && strings.HasPrefix(d.Name(), ".") {
			return fs.SkipDir
		}

		return nil
	}

	ext := documentExt(d.Name(), o.extensions)
	if ext == "" {
		return nil
	}

	rel, err := filepath.Rel(rs.root, p)
	if err != nil {
		return fmt.Errorf("relative path for %s: %w", p, err)
	}

	rel = filepath.ToSlash(rel)
	id := strings.TrimSuffix(rel, ext)

	data, err := os.ReadFile(p) //nolint:gosec // G304: Paths come from the walked tree.
	if err != nil {
		slog.Warn("skip unreadable rule document",
			slog.String("path", rel),
			slog.Any("err", err),
		)
		rs.issues = append(rs.issues, fmt.Errorf("read %s: %w", rel, err))

		return nil
	}

	doc, err := ParseDocument(id, rel, data)
	if err != nil {
		slog.Warn("skip malformed rule document",
			slog.String("path", rel),
			slog.Any("err", err),
		)
		rs.issues = append(rs.issues, err)

		return nil
	}

	if existing, ok := rs.docs[id]; ok {
		// Identifiers must be unique; the first document wins.
		slog.Warn("duplicate rule identifier",
			slog.String("id", id),
			slog.String("kept", existing.Path),
			slog.String("skipped", rel),
		)
		rs.issues = append(rs.issues,
			fmt.Errorf("duplicate identifier %q: %s and %s", id, existing.Path, rel))

		return nil
	}

	rs.docs[id] = doc

	return nil
}

func documentExt(name string, extensions []string) string {
	for _, ext := range extensions {
		if strings.HasSuffix(name, ext) && len(name) > len(ext) {
			return ext
		}
	}

	return ""
}

// Root returns the rules root directory as provided to [Load].
func (rs *RuleSet) Root() string {
	return rs.root
}

// Len returns the number of loaded documents.
func (rs *RuleSet) Len() int {
	return len(rs.docs)
}

// IDs returns the loaded identifiers in lexicographic order.
func (rs *RuleSet) IDs() []string {
	return slices.Clone(rs.ids)
}

// Get returns the document with the given identifier.
func (rs *RuleSet) Get(id string) (*Document, bool) {
	doc, ok := rs.docs[id]

	return doc, ok
}

// Documents returns all documents in lexicographic identifier order.
func (rs *RuleSet) Documents() []*Document {
	docs := make([]*Document, 0, len(rs.ids))
	for _, id := range rs.ids {
		docs = append(docs, rs.docs[id])
	}

	return docs
}

// Issues returns the per-document errors recorded during load (malformed
// frontmatter, unreadable files, duplicate identifiers).
func (rs *RuleSet) Issues() []error {
	return slices.Clone(rs.issues)
}

// Resolve returns the documents that apply to targetPath, in deterministic
// order: explicitly requested identifiers first (request order), then
// always-apply documents, then glob matches (both lexicographic). A document
// appears at most once, under its highest-priority reason. Unknown explicit
// identifiers are ignored. Resolve is pure and never fails.
func (rs *RuleSet) Resolve(targetPath string, explicit []string) []Match {
	target := rs.relTarget(targetPath)

	seen := make(map[string]struct{}, len(explicit))

	var out []Match

	for _, id := range explicit {
		doc, ok := rs.docs[id]
		if !ok {
			// Unknown identifiers are not an error.
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}

		seen[id] = struct{}{}
		out = append(out, Match{Document: doc, Reason: ReasonExplicit})
	}

	for _, id := range rs.ids {
		if _, dup := seen[id]; dup {
			continue
		}

		if rs.docs[id].AlwaysApply {
			seen[id] = struct{}{}
			out = append(out, Match{Document: rs.docs[id], Reason: ReasonAlwaysApply})
		}
	}

	for _, id := range rs.ids {
		if _, dup := seen[id]; dup {
			continue
		}

		if rs.docs[id].Matches(target) {
			seen[id] = struct{}{}
			out = append(out, Match{Document: rs.docs[id], Reason: ReasonGlob})
		}
	}

	return out
}

// relTarget normalizes a target path for glob matching: absolute paths under
// the rules root are made relative to it, everything else is cleaned and
// slash-separated as given.
func (rs *RuleSet) relTarget(target string) string {
	if filepath.IsAbs(target) {
		rel, err := filepath.Rel(rs.absRoot, target)
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return filepath.ToSlash(rel)
		}
	}

	return filepath.ToSlash(filepath.Clean(target))
}
