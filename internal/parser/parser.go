// Package parser walks a component source tree and extracts canonical
// ComponentDoc records from each component's documentation and demo files.
package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/rci/internal/domain"
)

const (
	docFileName     = "index.en-US.md"
	depsFileName    = "index.ts"
	demoDirName     = "demo"
	packageJSONName = "package.json"
	maxExamples     = 3
)

// ParsedComponent is one parse outcome: status "success", or status "error"
// with the failure message, per the parser's per-component failure
// tolerance. Either way Info holds the ComponentDoc as built, with fallback
// values (such as the "<ComponentName> component" description) where a facet
// could not be read.
type ParsedComponent struct {
	Info     domain.ComponentDoc
	FilePath string
	Status   string
	Error    string
}

// Parser walks a <sourceRoot>/components tree and produces ParsedComponent
// records, one per non-underscore-prefixed immediate subdirectory.
type Parser struct {
	logger      *zap.Logger
	tagTable    map[string][]string
	maxExamples int
}

// Option configures a Parser.
type Option func(*Parser)

// WithLogger attaches a zap logger; components are logged at Debug on
// success and Warn on per-component failure. Defaults to zap.NewNop().
func WithLogger(l *zap.Logger) Option {
	return func(p *Parser) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithTagTable overrides the static component-name-to-tags mapping.
func WithTagTable(table map[string][]string) Option {
	return func(p *Parser) {
		if table != nil {
			p.tagTable = table
		}
	}
}

// WithMaxExamples overrides the number of demo files retained per component
// (spec default: 3).
func WithMaxExamples(n int) Option {
	return func(p *Parser) {
		if n > 0 {
			p.maxExamples = n
		}
	}
}

// New builds a Parser with the given options.
func New(opts ...Option) *Parser {
	p := &Parser{
		logger:      zap.NewNop(),
		tagTable:    tagTable,
		maxExamples: maxExamples,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ParseAll walks <sourceRoot>/components and parses every immediate
// subdirectory whose name does not start with "_". It returns one
// ParsedComponent per candidate directory (never omitting a directory, even
// on per-component failure) plus a list of operational warnings (currently
// limited to circular-dependency notices). A failure to list the
// components directory itself is returned as a fatal error.
func (p *Parser) ParseAll(ctx context.Context, sourceRoot, packageName string) ([]ParsedComponent, []string, error) {
	componentsDir := filepath.Join(sourceRoot, "components")

	entries, err := os.ReadDir(componentsDir)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: list components dir %s: %v", domain.ErrComponentParseFailed, componentsDir, err)
	}

	version := p.readVersion(sourceRoot)

	deps := make(map[string][]string)
	var results []ParsedComponent

	for _, entry := range entries {
		select {
		case <-ctx.Done():
			return results, nil, ctx.Err()
		default:
		}

		if !entry.IsDir() || strings.HasPrefix(entry.Name(), "_") {
			continue
		}

		start := time.Now()
		pc := p.parseOne(componentsDir, entry.Name(), packageName, version)
		deps[pc.Info.ComponentName] = pc.Info.Dependencies

		if pc.Status == "success" {
			p.logger.Debug("parsed component",
				zap.String("component", pc.Info.ComponentName),
				zap.String("path", pc.FilePath),
				zap.Duration("duration", time.Since(start)))
		} else {
			p.logger.Warn("failed to parse component",
				zap.String("component", pc.Info.ComponentName),
				zap.String("path", pc.FilePath),
				zap.String("error", pc.Error),
				zap.Duration("duration", time.Since(start)))
		}

		results = append(results, pc)
	}

	var warnings []string
	for _, cycle := range detectCycles(deps) {
		warnings = append(warnings, fmt.Sprintf("circular dependency detected: %s", strings.Join(cycle, " -> ")))
	}

	return results, warnings, nil
}

// parseOne parses a single component directory, never returning an error:
// any failure is folded into the ParsedComponent's Status/Error fields so
// the caller's walk can continue.
func (p *Parser) parseOne(componentsDir, dirName, packageName, version string) ParsedComponent {
	componentName := capitalize(dirName)
	dir := filepath.Join(componentsDir, dirName)

	description, descErr := p.extractDescription(dir, componentName)
	api := p.extractAPI(dir)
	examples := p.extractExamples(dir)
	tags := tagsFor(strings.ToLower(dirName), p.tagTable)
	dependencies := p.extractDependencies(dir)

	doc := domain.ComponentDoc{
		PackageName:   packageName,
		ComponentName: componentName,
		Description:   description,
		API:           api,
		Examples:      examples,
		Tags:          tags,
		Version:       version,
		Dependencies:  dependencies,
		UpdatedAt:     time.Now(),
	}

	if descErr != nil {
		return ParsedComponent{Info: doc, FilePath: dir, Status: "error", Error: descErr.Error()}
	}
	return ParsedComponent{Info: doc, FilePath: dir, Status: "success"}
}

// extractDescription reads index.en-US.md and takes the slab between the
// first "---" separator line and the first subsequent "## "-prefixed
// heading, joined with single spaces. Any read/parse failure falls back to
// "<ComponentName> component" and is reported (non-fatally) via the
// returned error, which only affects the ParsedComponent's status.
func (p *Parser) extractDescription(dir, componentName string) (string, error) {
	fallback := componentName + " component"

	data, err := os.ReadFile(filepath.Join(dir, docFileName)) //nolint:gosec // trusted local doc tree
	if err != nil {
		return fallback, fmt.Errorf("read %s: %w", docFileName, err)
	}

	lines := strings.Split(string(data), "\n")
	start := -1
	for i, line := range lines {
		if strings.TrimSpace(line) == "---" {
			start = i + 1
			break
		}
	}
	if start < 0 {
		return fallback, fmt.Errorf("no frontmatter separator in %s", docFileName)
	}

	var parts []string
	for i := start; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if strings.HasPrefix(trimmed, "## ") {
			break
		}
		if trimmed == "" || trimmed == "---" {
			continue
		}
		parts = append(parts, trimmed)
	}

	if len(parts) == 0 {
		return fallback, fmt.Errorf("empty description in %s", docFileName)
	}
	return strings.Join(parts, " "), nil
}

// extractAPI reads index.en-US.md and returns the slab from the first
// "## API" heading up to (but excluding) the next "## " heading that is not
// "## API". Missing -> domain.APIUnavailable.
func (p *Parser) extractAPI(dir string) string {
	data, err := os.ReadFile(filepath.Join(dir, docFileName)) //nolint:gosec // trusted local doc tree
	if err != nil {
		return domain.APIUnavailable
	}

	lines := strings.Split(string(data), "\n")
	start := -1
	for i, line := range lines {
		if strings.TrimSpace(line) == "## API" {
			start = i
			break
		}
	}
	if start < 0 {
		return domain.APIUnavailable
	}

	end := len(lines)
	for i := start + 1; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if strings.HasPrefix(trimmed, "## ") && trimmed != "## API" {
			end = i
			break
		}
	}

	return strings.TrimSpace(strings.Join(lines[start:end], "\n"))
}

// extractExamples lists <dir>/demo/*.tsx sorted lexicographically, takes up
// to maxExamples, strips import lines from each, and discards any example
// that is empty after trimming. A missing demo directory yields [].
func (p *Parser) extractExamples(dir string) []string {
	demoDir := filepath.Join(dir, demoDirName)
	entries, err := os.ReadDir(demoDir)
	if err != nil {
		return nil
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".tsx") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var examples []string
	for _, name := range names {
		if len(examples) >= p.maxExamples {
			break
		}
		data, err := os.ReadFile(filepath.Join(demoDir, name)) //nolint:gosec // trusted local doc tree
		if err != nil {
			continue
		}
		var kept []string
		for _, line := range strings.Split(string(data), "\n") {
			if strings.HasPrefix(strings.TrimSpace(line), "import") {
				continue
			}
			kept = append(kept, line)
		}
		body := strings.TrimSpace(strings.Join(kept, "\n"))
		if body == "" {
			continue
		}
		examples = append(examples, body)
	}
	return examples
}

var dependencyRegex = regexp.MustCompile(`from ['"]\.\./([^'"]+)['"]`)

// extractDependencies scans <dir>/index.ts for relative-parent imports and
// capitalizes the first path segment of each match.
func (p *Parser) extractDependencies(dir string) []string {
	data, err := os.ReadFile(filepath.Join(dir, depsFileName)) //nolint:gosec // trusted local doc tree
	if err != nil {
		return nil
	}

	matches := dependencyRegex.FindAllStringSubmatch(string(data), -1)
	seen := make(map[string]struct{}, len(matches))
	var deps []string
	for _, m := range matches {
		segment := strings.SplitN(m[1], "/", 2)[0]
		name := capitalize(segment)
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		deps = append(deps, name)
	}
	return deps
}

// readVersion reads <sourceRoot>/package.json's "version" field, defaulting
// to "1.0.0" on any failure.
func (p *Parser) readVersion(sourceRoot string) string {
	const fallback = "1.0.0"

	data, err := os.ReadFile(filepath.Join(sourceRoot, packageJSONName)) //nolint:gosec // trusted local doc tree
	if err != nil {
		return fallback
	}

	var pkg struct {
		Version string `json:"version"`
	}
	if err := json.Unmarshal(data, &pkg); err != nil || pkg.Version == "" {
		return fallback
	}
	return pkg.Version
}

// capitalize turns a hyphenated directory name into PascalCase, e.g.
// "radio-group" -> "RadioGroup".
func capitalize(name string) string {
	segments := strings.Split(name, "-")
	var b strings.Builder
	for _, seg := range segments {
		if seg == "" {
			continue
		}
		r := []rune(seg)
		b.WriteString(strings.ToUpper(string(r[0])))
		if len(r) > 1 {
			b.WriteString(string(r[1:]))
		}
	}
	return b.String()
}
