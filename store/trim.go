package store

import (
	"fmt"
	"reflect"

	"github.com/poking-agents/flock-public/operations"
	"github.com/poking-agents/flock-public/state"
)

// Trim walks doc and truncates every targeted string field that exceeds
// capChars, in place (spec §4.A). Targeted fields: every
// nodes[].options[].content, and every previous_results[][].result string
// field of type string (stdout, stderr, output) plus the result's error
// field, across all variants. Trimming is idempotent: re-trimming an
// already-capped document is a no-op, since trimString only acts when the
// input exceeds capChars.
func Trim(doc *state.AgentState, capChars int) {
	for i := range doc.Nodes {
		for j := range doc.Nodes[i].Options {
			doc.Nodes[i].Options[j].Content = trimString(doc.Nodes[i].Options[j].Content, capChars)
		}
	}
	for i := range doc.PreviousResults {
		for j := range doc.PreviousResults[i].Pairs {
			doc.PreviousResults[i].Pairs[j].Result = trimResult(doc.PreviousResults[i].Pairs[j].Result, capChars)
		}
	}
}

// trimResult trims the string-valued output fields spec §4.A calls out by
// name (stdout, stderr, output) for the two variants that carry them, then
// trims the shared error field on every variant via reflection — every
// Result implementation has an `Error *string` field, and enumerating each
// of the fourteen concrete types here would just be that same field over
// and over.
func trimResult(r operations.Result, capChars int) operations.Result {
	switch v := r.(type) {
	case operations.BashResult:
		v.Output.Stdout = trimString(v.Output.Stdout, capChars)
		v.Output.Stderr = trimString(v.Output.Stderr, capChars)
		r = v
	case operations.PythonResult:
		v.Output.Output = trimString(v.Output.Output, capChars)
		r = v
	}
	return trimErrorField(r, capChars)
}

func trimErrorField(r operations.Result, capChars int) operations.Result {
	errPtr := r.OperationError()
	if errPtr == nil || len(*errPtr) <= capChars {
		return r
	}
	trimmed := trimString(*errPtr, capChars)

	rv := reflect.New(reflect.TypeOf(r)).Elem()
	rv.Set(reflect.ValueOf(r))
	field := rv.FieldByName("Error")
	if !field.IsValid() || field.Kind() != reflect.Ptr {
		return r
	}
	field.Set(reflect.ValueOf(&trimmed))
	out, ok := rv.Interface().(operations.Result)
	if !ok {
		return r
	}
	return out
}

const markerTemplate = "\n... [trimmed %d characters] ...\n"

// trimString replaces the middle of content with a marker recording how many
// characters were removed, keeping head and tail halves so both the prefix
// and the most recent output survive (spec §4.A, grounded on
// original_source/triframe/context_management.py's trim_content). A no-op
// when content already fits within capChars.
func trimString(content string, capChars int) string {
	if capChars <= 0 || len(content) <= capChars {
		return content
	}

	// First pass: size the marker for the smallest possible removed count
	// (len-capChars), then recompute once that marker's length (which depends
	// on the digit count of "removed") is known. The second marker can be one
	// digit longer than the first, so the count written into the final marker
	// is taken from the head and tail actually kept.
	removed := len(content) - capChars
	marker := fmt.Sprintf(markerTemplate, removed)
	avail := capChars - len(marker)
	if avail < 0 {
		avail = 0
	}
	head := avail / 2
	tail := avail - head
	if head+tail >= len(content) {
		return content
	}
	removed = len(content) - head - tail
	marker = fmt.Sprintf(markerTemplate, removed)
	avail = capChars - len(marker)
	if avail < 0 {
		avail = 0
	}
	head = avail / 2
	tail = avail - head
	if head+tail >= len(content) {
		return content
	}
	marker = fmt.Sprintf(markerTemplate, len(content)-head-tail)
	return content[:head] + marker + content[len(content)-tail:]
}
