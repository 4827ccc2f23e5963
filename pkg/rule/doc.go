// Package rule loads directories of rule documents and resolves which
// documents apply to a given file.
//
// A rule document is a text file (by default `.mdc` or `.md`) with an
// optional frontmatter block followed by an opaque body:
//
//	---
//	description: Ruby style conventions.
//	globs: **/*.rb, **/*.rake
//	alwaysApply: false
//	---
//
//	# Ruby
//	...
//
// Recognized frontmatter keys are `description` (string), `globs` (a YAML
// sequence of glob patterns, or a single comma/newline-separated scalar),
// and `alwaysApply` (bool, default false). A document without frontmatter is
// all-defaults with the entire file as body. The body is never interpreted.
//
// Documents are addressed by identifier: the path relative to the rules root,
// slash-separated, without the file extension. A document with no globs and
// alwaysApply false is only selected when its identifier is requested
// explicitly.
//
// A loaded [RuleSet] is immutable and safe for concurrent readers. Refresh is
// by discarding and reloading; [Source] and [Watcher] build that loop on top
// of [Load].
package rule
