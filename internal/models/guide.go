// Package models defines the domain types for crambook.
package models

import "time"

// GuideMetadata is a lightweight representation returned by store listings.
type GuideMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Heading is one outline entry of a guide. Anchor is the GitHub-style slug
// links use to address it, deduplicated with -1/-2 suffixes within a guide.
type Heading struct {
	Level  int    `json:"level"`
	Text   string `json:"text"`
	Anchor string `json:"anchor"`
	Line   int    `json:"line"`
}

// LinkKind classifies a link occurrence.
type LinkKind string

const (
	// LinkKindInline is a standard [text](target) hyperlink.
	LinkKindInline LinkKind = "inline"
	// LinkKindImage is an ![alt](target) image reference.
	LinkKindImage LinkKind = "image"
	// LinkKindAuto is an autolinked bare URL.
	LinkKindAuto LinkKind = "auto"
)

// LinkRef is a single link occurrence inside a guide.
//
// For internal references Target is normalized relative to the corpus root
// (resolved against the source guide's directory). Anchor holds the fragment
// without the leading '#'; an anchor-only link has an empty Target. External
// links keep their raw destination in Target.
type LinkRef struct {
	Target   string   `json:"target"`
	Anchor   string   `json:"anchor,omitempty"`
	Kind     LinkKind `json:"kind"`
	Line     int      `json:"line"`
	External bool     `json:"external,omitempty"`
}

// CodeBlock is a fenced code block occurrence. Language is the info-string
// language identifier, empty when the fence is untagged. Line points at the
// opening fence (0 when it cannot be determined).
type CodeBlock struct {
	Language string `json:"language"`
	Line     int    `json:"line"`
}

// Backlink is an incoming reference: the guide at Path links to the subject
// from the given line, optionally through an anchor.
type Backlink struct {
	Path   string `json:"path"`
	Anchor string `json:"anchor,omitempty"`
	Line   int    `json:"line"`
}
