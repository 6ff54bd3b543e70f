package language

import "sort"

// Info is the full classification of a single path.
type Info struct {
	Path                string   `json:"path"`
	Language            Tag      `json:"language"`
	Category            Category `json:"category"`
	CanExtractSymbols   bool     `json:"can_extract_symbols"`
	CanExtractStructure bool     `json:"can_extract_structure"`
}

// Extractable reports whether any extractor applies.
func (i Info) Extractable() bool {
	return i.CanExtractSymbols || i.CanExtractStructure
}

// Classify detects the language of path and resolves its capabilities.
func Classify(path string) Info {
	tag := Detect(path)
	return Info{
		Path:                path,
		Language:            tag,
		Category:            CategoryOf(tag),
		CanExtractSymbols:   CanExtractSymbols(tag),
		CanExtractStructure: CanExtractStructure(tag),
	}
}

// ClassifyAll classifies paths preserving their order.
func ClassifyAll(paths []string) []Info {
	out := make([]Info, 0, len(paths))
	for _, p := range paths {
		out = append(out, Classify(p))
	}
	return out
}

// Tags returns every known tag, TagOther last.
func Tags() []Tag {
	seen := make(map[Tag]bool)
	var tags []Tag
	for _, tag := range extensionTags {
		if !seen[tag] {
			seen[tag] = true
			tags = append(tags, tag)
		}
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return append(tags, TagOther)
}

// Extensions lists the extensions mapped to tag, sorted.
func Extensions(tag Tag) []string {
	var exts []string
	for ext, t := range extensionTags {
		if t == tag {
			exts = append(exts, ext)
		}
	}
	sort.Strings(exts)
	return exts
}
