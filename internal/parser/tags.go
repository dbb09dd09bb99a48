package parser

// defaultTags is the fallback tag set for component names with no entry
// in tagTable.
var defaultTags = []string{"ui", "react", "component"}

// tagTable maps a lower-cased component directory name to the extra tags
// it contributes, on top of the "react"/"component" tags every component
// gets.
var tagTable = map[string][]string{
	"button": {"form", "action", "ui", "interactive"},

	"input":    {"form", "data-entry", "ui"},
	"select":   {"form", "data-entry", "ui"},
	"checkbox": {"form", "data-entry", "ui"},
	"radio":    {"form", "data-entry", "ui"},
	"switch":   {"form", "data-entry", "ui"},
	"slider":   {"form", "data-entry", "ui"},
	"upload":   {"form", "data-entry", "ui"},

	"form": {"data-entry", "validation", "ui"},

	"table": {"data-display", "list", "ui"},

	"modal":   {"feedback", "overlay", "ui"},
	"tooltip": {"data-display", "overlay", "ui"},
	"popover": {"data-display", "overlay", "ui"},

	"alert":    {"feedback", "message", "ui"},
	"progress": {"feedback", "loading", "ui"},
	"spin":     {"feedback", "loading", "ui"},

	"card":   {"data-display", "ui"},
	"avatar": {"data-display", "ui"},
	"badge":  {"data-display", "ui"},
	"tag":    {"data-display", "ui"},

	"menu":       {"navigation", "ui"},
	"breadcrumb": {"navigation", "ui"},
	"tabs":       {"navigation", "ui"},
	"dropdown":   {"navigation", "ui"},

	"pagination": {"navigation", "data-display", "ui"},
}

// tagsFor returns the full tag set for a lower-cased component name:
// its table entry (or the default set) plus "react" and "component".
func tagsFor(lowerName string, table map[string][]string) []string {
	extra, ok := table[lowerName]
	if !ok {
		extra = defaultTags
	}

	seen := make(map[string]struct{}, len(extra)+2)
	tags := make([]string, 0, len(extra)+2)
	add := func(t string) {
		if _, dup := seen[t]; dup {
			return
		}
		seen[t] = struct{}{}
		tags = append(tags, t)
	}
	for _, t := range extra {
		add(t)
	}
	add("react")
	add("component")
	return tags
}
