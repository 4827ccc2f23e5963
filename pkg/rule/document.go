package rule

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"
)

const frontmatterDelimiter = "---"

var errUnterminatedFrontmatter = errors.New("unterminated frontmatter block")

// ParseError reports a document whose frontmatter could not be parsed.
// Parse errors are per-document and non-fatal to a load.
type ParseError struct {
	Err  error
	Path string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Document is a single rule document. Documents are immutable after load.
type Document struct {
	// ID is the document identifier: the path relative to the rules root,
	// slash-separated, without extension.
	ID string
	// Description is free text from the frontmatter, possibly empty.
	Description string
	// Path is the source path relative to the rules root.
	Path string
	// Body is the opaque document text after the frontmatter block.
	Body string
	// Globs are the patterns declaring which file paths this document
	// applies to.
	Globs []string
	// AlwaysApply marks the document active for every target path.
	AlwaysApply bool
}

type frontmatter struct {
	Description string   `yaml:"description"`
	Globs       GlobList `yaml:"globs"`
	AlwaysApply bool     `yaml:"alwaysApply"`
}

// GlobList accepts either a YAML sequence of patterns or a single
// comma/newline-separated scalar, the shape most rule files in the wild use.
type GlobList []string

func (g *GlobList) UnmarshalYAML(unmarshal func(any) error) error {
	var seq []string
	if err := unmarshal(&seq); err == nil {
		patterns := make([]string, 0, len(seq))
		for _, p := range seq {
			if p = strings.TrimSpace(p); p != "" {
				patterns = append(patterns, p)
			}
		}

		*g = patterns

		return nil
	}

	var scalar string

	err := unmarshal(&scalar)
	if err != nil {
		return fmt.Errorf("globs must be a sequence or a string: %w", err)
	}

	*g = SplitPatterns(scalar)

	return nil
}

// SplitPatterns splits a comma- or newline-separated pattern string,
// dropping empty entries.
func SplitPatterns(s string) []string {
	var patterns []string

	for _, part := range strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == '\n'
	}) {
		if part = strings.TrimSpace(part); part != "" {
			patterns = append(patterns, part)
		}
	}

	return patterns
}

// ParseDocument parses a rule document. A missing frontmatter block yields a
// document with defaults and the entire input as body. Malformed frontmatter
// yields a [*ParseError].
func ParseDocument(id, path string, data []byte) (*Document, error) {
	doc := &Document{ID: id, Path: path}

	content := strings.ReplaceAll(string(data), "\r\n", "\n")

	block, body, found, err := splitFrontmatter(content)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	if !found {
		doc.Body = content

		return doc, nil
	}

	var fm frontmatter

	if strings.TrimSpace(block) != "" {
		err = yaml.Unmarshal([]byte(normalizeGlobs(block)), &fm)
		if err != nil {
			return nil, &ParseError{Path: path, Err: fmt.Errorf("frontmatter: %w", err)}
		}
	}

	doc.Description = fm.Description
	doc.Globs = fm.Globs
	doc.AlwaysApply = fm.AlwaysApply
	doc.Body = strings.TrimLeft(body, "\n")

	return doc, nil
}

// splitFrontmatter separates the leading frontmatter block from the body.
// The block must start on the very first line and be closed by a matching
// delimiter line; a frontmatter opener with no closer is an error.
func splitFrontmatter(content string) (block, body string, found bool, err error) {
	rest, ok := strings.CutPrefix(content, frontmatterDelimiter+"\n")
	if !ok {
		if strings.TrimRight(content, " \t\n") == frontmatterDelimiter {
			return "", "", false, errUnterminatedFrontmatter
		}

		return "", "", false, nil
	}

	lines := strings.Split(rest, "\n")
	for i, line := range lines {
		if strings.TrimRight(line, " \t") == frontmatterDelimiter {
			block = strings.Join(lines[:i], "\n")
			body = strings.Join(lines[i+1:], "\n")

			return block, body, true, nil
		}
	}

	return "", "", false, errUnterminatedFrontmatter
}

var (
	globsKeyRe = regexp.MustCompile(`^(\s*globs:\s*)(.*)$`)
	seqItemRe  = regexp.MustCompile(`^(\s*-\s+)(.*)$`)
)

// normalizeGlobs quotes bare glob values in a frontmatter block before YAML
// decoding. An unquoted scalar beginning with `*` (as in `globs: *.rb`) would
// otherwise be read as an alias node and fail to decode.
func normalizeGlobs(block string) string {
	lines := strings.Split(block, "\n")
	inSeq := false

	for i, line := range lines {
		if m := globsKeyRe.FindStringSubmatch(line); m != nil {
			value := strings.TrimSpace(m[2])
			if value == "" {
				// Block sequence follows; quote its items.
				inSeq = true

				continue
			}

			inSeq = false
			lines[i] = m[1] + quoteBareScalar(value)

			continue
		}

		if inSeq {
			if m := seqItemRe.FindStringSubmatch(line); m != nil {
				lines[i] = m[1] + quoteBareScalar(strings.TrimSpace(m[2]))

				continue
			}

			if strings.TrimSpace(line) != "" {
				inSeq = false
			}
		}
	}

	return strings.Join(lines, "\n")
}

// quoteBareScalar quotes a plain scalar value. Values that are already
// quoted, or that use flow/block styles, are left alone.
func quoteBareScalar(value string) string {
	if value == "" {
		return value
	}

	switch value[0] {
	case '"', '\'', '[', '{', '|', '>', '&', '#':
		return value
	}

	return strconv.Quote(value)
}
