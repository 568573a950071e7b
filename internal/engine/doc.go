// Package engine wraps the external, black-box conversion engine.
//
// The Converter interface is the collaborator boundary: the pipeline hands it
// an input path, an output path, and a Settings bundle, and receives progress
// callbacks plus a classified error on failure. Classification matters
// because the fallback controller only retries renderer-crash-class failures;
// encrypted or structurally invalid input is fatal immediately, and a
// prior-artifact result counts as success.
//
// The CLI implementation shells out to the configured binary and parses JSON
// progress lines from stdout, the same contract the rest of the system is
// tested against with fakes.
package engine
