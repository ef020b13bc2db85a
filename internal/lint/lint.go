// Package lint implements the authoring contract for study guides: the
// checks that keep the corpus navigable. Rules are pure functions over
// parsed documents; resolving link targets goes through a Resolver so the
// same checks run against the live index, the raw file tree, or an
// in-memory snapshot.
package lint

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/binhphanhai/crambook/internal/markdown"
	"github.com/binhphanhai/crambook/internal/models"
)

// Rule identifiers, stable across releases so they can be disabled by name.
const (
	RuleEncodingUTF8     = "encoding-utf8"
	RuleFrontmatterValid = "frontmatter-valid"
	RuleTitleMissing     = "title-missing"
	RuleFenceLanguage    = "fence-language"
	RuleLinkResolves     = "link-resolves"
	RuleAnchorResolves   = "anchor-resolves"
	RuleImageResolves    = "image-resolves"
)

// AllRules lists every rule identifier, in report order.
var AllRules = []string{
	RuleEncodingUTF8,
	RuleFrontmatterValid,
	RuleTitleMissing,
	RuleFenceLanguage,
	RuleLinkResolves,
	RuleAnchorResolves,
	RuleImageResolves,
}

// Severity classifies how strongly a rule violation breaks the contract.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

var ruleSeverity = map[string]Severity{
	RuleEncodingUTF8:     SeverityError,
	RuleFrontmatterValid: SeverityError,
	RuleTitleMissing:     SeverityWarning,
	RuleFenceLanguage:    SeverityWarning,
	RuleLinkResolves:     SeverityError,
	RuleAnchorResolves:   SeverityError,
	RuleImageResolves:    SeverityError,
}

// ValidRule reports whether id names a known rule.
func ValidRule(id string) bool {
	_, ok := ruleSeverity[id]
	return ok
}

// Issue is a single contract violation in one guide. Line is 1-based and
// 0 when the issue concerns the file as a whole.
type Issue struct {
	Path     string   `json:"path"`
	Rule     string   `json:"rule"`
	Severity Severity `json:"severity"`
	Line     int      `json:"line,omitempty"`
	Message  string   `json:"message"`
}

// Resolver answers existence questions for link targets. A nil Resolver
// skips the resolution rules and runs only the content-local ones.
type Resolver interface {
	// GuideExists reports whether a guide lives at the corpus-relative path.
	GuideExists(path string) bool
	// AnchorExists reports whether the guide at path defines the anchor.
	AnchorExists(path, anchor string) bool
	// AssetExists reports whether a non-guide file exists at path.
	AssetExists(path string) bool
}

// Options selects which rules run.
type Options struct {
	Disabled []string
}

func (o Options) enabled(rule string) bool {
	for _, d := range o.Disabled {
		if d == rule {
			return false
		}
	}
	return true
}

// CheckGuide runs every enabled rule against a single guide and returns its
// violations in document order.
func CheckGuide(path string, raw []byte, doc *markdown.Document, res Resolver, opts Options) []Issue {
	var issues []Issue
	add := func(rule string, line int, msg string) {
		if !opts.enabled(rule) {
			return
		}
		issues = append(issues, Issue{
			Path:     path,
			Rule:     rule,
			Severity: ruleSeverity[rule],
			Line:     line,
			Message:  msg,
		})
	}

	if !utf8.Valid(raw) {
		add(RuleEncodingUTF8, 0, "content is not valid UTF-8")
	}
	if doc.MetaErr != nil {
		add(RuleFrontmatterValid, 1, fmt.Sprintf("frontmatter does not parse: %v", doc.MetaErr))
	}
	if doc.Title == "" {
		add(RuleTitleMissing, 0, "no frontmatter title and no leading H1")
	}
	for _, cb := range doc.CodeBlocks {
		if cb.Language == "" {
			add(RuleFenceLanguage, cb.Line, "fenced code block has no language tag")
		}
	}

	own := doc.Anchors()
	for _, l := range doc.Links {
		if l.External {
			continue
		}
		if l.Kind == models.LinkKindImage {
			checkImage(add, res, l)
			continue
		}
		checkLink(add, res, own, l)
	}
	return issues
}

func checkLink(add func(string, int, string), res Resolver, own map[string]struct{}, l models.LinkRef) {
	switch {
	case l.Target == "" && l.Anchor == "":
		add(RuleLinkResolves, l.Line, "link has an empty destination")
	case l.Target == "":
		// Same-document anchor.
		if _, ok := own[l.Anchor]; !ok {
			add(RuleAnchorResolves, l.Line, fmt.Sprintf("anchor #%s not found in this guide", l.Anchor))
		}
	case escapesRoot(l.Target):
		add(RuleLinkResolves, l.Line, fmt.Sprintf("link target %q escapes the corpus root", l.Target))
	case isGuidePath(l.Target):
		if res == nil {
			return
		}
		if !res.GuideExists(l.Target) {
			add(RuleLinkResolves, l.Line, fmt.Sprintf("link target %q does not exist", l.Target))
			return
		}
		// Only check the anchor when the guide itself resolved, so one
		// broken link yields one issue.
		if l.Anchor != "" && !res.AnchorExists(l.Target, l.Anchor) {
			add(RuleAnchorResolves, l.Line, fmt.Sprintf("anchor #%s not found in %q", l.Anchor, l.Target))
		}
	default:
		if res != nil && !res.AssetExists(l.Target) {
			add(RuleLinkResolves, l.Line, fmt.Sprintf("link target %q does not exist", l.Target))
		}
	}
}

func checkImage(add func(string, int, string), res Resolver, l models.LinkRef) {
	switch {
	case l.Target == "":
		add(RuleImageResolves, l.Line, "image has an empty destination")
	case escapesRoot(l.Target):
		add(RuleImageResolves, l.Line, fmt.Sprintf("image target %q escapes the corpus root", l.Target))
	case res != nil && !res.AssetExists(l.Target):
		add(RuleImageResolves, l.Line, fmt.Sprintf("image target %q does not exist", l.Target))
	}
}

func isGuidePath(target string) bool {
	return strings.HasSuffix(target, ".md")
}

func escapesRoot(target string) bool {
	return target == ".." || strings.HasPrefix(target, "../")
}
