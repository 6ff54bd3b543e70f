// Package language maps file paths to language tags and the extraction
// capabilities available for each tag. Everything here is table driven and
// free of I/O so discovery results can be filtered repeatedly.
package language

import (
	"path"
	"strings"
)

// Tag identifies a language. The set is closed: anything not in the
// extension table is TagOther.
type Tag string

const (
	TagTypeScript       Tag = "typescript"
	TagJavaScript       Tag = "javascript"
	TagGo               Tag = "go"
	TagPython           Tag = "python"
	TagJava             Tag = "java"
	TagC                Tag = "c"
	TagCPP              Tag = "cpp"
	TagRust             Tag = "rust"
	TagMarkdown         Tag = "markdown"
	TagReStructuredText Tag = "restructuredtext"
	TagAsciiDoc         Tag = "asciidoc"
	TagPlainText        Tag = "plaintext"
	TagYAML             Tag = "yaml"
	TagJSON             Tag = "json"
	TagTOML             Tag = "toml"
	TagXML              Tag = "xml"
	TagINI              Tag = "ini"
	TagTerraform        Tag = "terraform"
	TagSQL              Tag = "sql"
	TagGraphQL          Tag = "graphql"
	TagProtobuf         Tag = "protobuf"
	TagOther            Tag = "other"
)

// Category represents the high level grouping for a language.
type Category string

const (
	CategoryCode   Category = "code"
	CategoryDoc    Category = "document"
	CategoryConfig Category = "config"
	CategorySchema Category = "schema"
	CategoryInfra  Category = "infrastructure"
	CategoryOther  Category = "other"
)

// Keys are lower case and include the leading dot.
var extensionTags = map[string]Tag{
	".ts":       TagTypeScript,
	".tsx":      TagTypeScript,
	".mts":      TagTypeScript,
	".cts":      TagTypeScript,
	".js":       TagJavaScript,
	".jsx":      TagJavaScript,
	".mjs":      TagJavaScript,
	".cjs":      TagJavaScript,
	".go":       TagGo,
	".py":       TagPython,
	".java":     TagJava,
	".c":        TagC,
	".h":        TagC,
	".cpp":      TagCPP,
	".cc":       TagCPP,
	".hpp":      TagCPP,
	".rs":       TagRust,
	".md":       TagMarkdown,
	".markdown": TagMarkdown,
	".mdx":      TagMarkdown,
	".rst":      TagReStructuredText,
	".adoc":     TagAsciiDoc,
	".txt":      TagPlainText,
	".yaml":     TagYAML,
	".yml":      TagYAML,
	".json":     TagJSON,
	".toml":     TagTOML,
	".xml":      TagXML,
	".ini":      TagINI,
	".tf":       TagTerraform,
	".sql":      TagSQL,
	".graphql":  TagGraphQL,
	".proto":    TagProtobuf,
}

type capabilities struct {
	symbols   bool
	structure bool
}

// Tags missing from this table have neither capability.
var tagCapabilities = map[Tag]capabilities{
	TagTypeScript: {symbols: true},
	TagJavaScript: {symbols: true},
	TagGo:         {symbols: true},
	TagMarkdown:   {structure: true},
}

var tagCategories = map[Tag]Category{
	TagTypeScript:       CategoryCode,
	TagJavaScript:       CategoryCode,
	TagGo:               CategoryCode,
	TagPython:           CategoryCode,
	TagJava:             CategoryCode,
	TagC:                CategoryCode,
	TagCPP:              CategoryCode,
	TagRust:             CategoryCode,
	TagMarkdown:         CategoryDoc,
	TagReStructuredText: CategoryDoc,
	TagAsciiDoc:         CategoryDoc,
	TagPlainText:        CategoryDoc,
	TagYAML:             CategoryConfig,
	TagJSON:             CategoryConfig,
	TagTOML:             CategoryConfig,
	TagXML:              CategoryConfig,
	TagINI:              CategoryConfig,
	TagSQL:              CategorySchema,
	TagGraphQL:          CategorySchema,
	TagProtobuf:         CategorySchema,
	TagTerraform:        CategoryInfra,
}

// Detect returns the language tag for path based on its extension alone.
// Both slash and backslash separated paths are accepted.
func Detect(p string) Tag {
	base := p
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	ext := strings.ToLower(path.Ext(base))
	if ext == "" || ext == base {
		// dotfiles such as ".ts" have no extension.
		return TagOther
	}
	if tag, ok := extensionTags[ext]; ok {
		return tag
	}
	return TagOther
}

// CanExtractSymbols reports whether a symbol-level extractor exists for tag.
func CanExtractSymbols(tag Tag) bool {
	return tagCapabilities[tag].symbols
}

// CanExtractStructure reports whether a document structure extractor
// (headings and sections) exists for tag.
func CanExtractStructure(tag Tag) bool {
	return tagCapabilities[tag].structure
}

// CategoryOf maps a tag to its category.
func CategoryOf(tag Tag) Category {
	if cat, ok := tagCategories[tag]; ok {
		return cat
	}
	return CategoryOther
}
