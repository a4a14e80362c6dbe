// Package render provides the pure tree helpers of the wordfill pipeline.
//
// Nothing here knows about data values: the functions take xml package nodes,
// mutate them through saved references and never call back into the wordfill
// package, which keeps the import graph one-way.
//
// # Structure Organization
//
//   - coalesce.go: grouping of contiguous plain-text spans per paragraph
//   - heal.go: targeted and proactive repair of tags split across spans
//   - breaks.go: splitting literal text on raw newlines and markup into break-joined spans
//   - fieldcode.go: merging field instructions fragmented over several runs
//   - blocks.go: locating @foreach/@if style marker paragraphs within a container
//   - runs.go: splitting a run around a span so structured content can take its place
//
// # Key Functions
//
// CoalesceSpans: returns the plain-text groups of a paragraph. Runs holding anything
// other than text end a group; bookmarks are transparent.
//
// HealParagraph: makes every {{...}} tag of a paragraph live inside a single span
// without changing the paragraph's flattened text.
//
// Example:
//
//	for _, p := range xml.Paragraphs(doc.Body.Elements) {
//	    render.HealParagraph(p, render.DefaultHealLimit)
//	}
package render
