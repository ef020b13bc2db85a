package mcpserver

// GuideFormatContract describes the canonical study-guide format that
// LLM consumers should follow when creating or updating guides.
const GuideFormatContract = `# crambook Guide Format Contract

Every Markdown study guide stored in crambook MUST follow this structure.
Guides that break it are flagged by the contract checker (` + "`" + `crambook check` + "`" + `,
the check_guide tool, and the /api/report endpoint).

## Structure

` + "```" + `markdown
---
title: Human-readable title         # RECOMMENDED – shown in lists and search
tags:                               # OPTIONAL – YAML list; used for filtering
  - javascript
  - interview
---

# Guide Title

Body text in GitHub-flavored Markdown.

## A Section

Use relative links to reference other guides: [Closures](../javascript/closures.md).
Link to a specific section with an anchor: [Setup](setup.md#installation).
` + "```" + `

## Rules

1. **Encoding is UTF-8.** Files with invalid byte sequences fail the contract
   (rule ` + "`" + `encoding-utf8` + "`" + `, error).
2. **Frontmatter, when present, must be valid YAML** between ` + "`" + `---` + "`" + ` fences at
   the very top of the file (rule ` + "`" + `frontmatter-valid` + "`" + `, error).
3. **Every guide needs a title**: a frontmatter ` + "`" + `title` + "`" + ` or a leading ` + "`" + `# H1` + "`" + `
   (rule ` + "`" + `title-missing` + "`" + `, warning).
4. **Code fences carry a language tag** (` + "`" + `go` + "`" + `, ` + "`" + `js` + "`" + `, ` + "`" + `bash` + "`" + `, ...) so
   syntax highlighting and tooling work (rule ` + "`" + `fence-language` + "`" + `, warning).
5. **Internal links must resolve.** Targets ending in ` + "`" + `.md` + "`" + ` must name an
   existing guide; ` + "`" + `#fragments` + "`" + ` must match a heading anchor in the target
   (rules ` + "`" + `link-resolves` + "`" + ` and ` + "`" + `anchor-resolves` + "`" + `, errors). Links may not
   escape the corpus root with ` + "`" + `../` + "`" + `.
6. **Images must resolve** to files inside the corpus (rule ` + "`" + `image-resolves` + "`" + `,
   error).
7. **File paths** end with ` + "`" + `.md` + "`" + `, use forward slashes, and are relative to
   the corpus root. File and directory names are lowercase English.
8. **External links** (http/https) are never checked; use them freely for
   references like MDN or specs.

## Anchors

Heading anchors follow the GitHub slug rules: lowercase, punctuation
stripped, spaces become ` + "`" + `-` + "`" + `, duplicates get ` + "`" + `-1` + "`" + `, ` + "`" + `-2` + "`" + ` suffixes.
` + "`" + `## Why React?` + "`" + ` is linked as ` + "`" + `#why-react` + "`" + `.

## Assets & Images

- Upload assets via the ` + "`" + `upload_asset` + "`" + ` tool. It returns a ` + "`" + `markdownImage` + "`" + `
  field ready to paste into the guide body.
- Assets live in the shared ` + "`" + `attachments/` + "`" + ` directory (flat, no sub-folders).
- Reference them with a corpus-absolute path: ` + "`" + `![diagram](/attachments/event-loop.png)` + "`" + `.
- Supported formats: png, jpg, jpeg, gif, webp, svg, pdf.

## Example

` + "````" + `markdown
---
title: The Event Loop
tags:
  - javascript
  - runtime
---

# The Event Loop

JavaScript runs callbacks from a queue, one at a time.

![Phases](/attachments/event-loop.png)

## Microtasks vs macrotasks

Promises enqueue microtasks; see [Promises](promises.md#microtask-queue).

` + "```" + `js
queueMicrotask(() => console.log("first"));
setTimeout(() => console.log("second"));
` + "```" + `
` + "````" + `
`
