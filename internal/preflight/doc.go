// Package preflight provides readiness checks for the external binaries and
// filesystem paths vellum depends on.
//
// These checks run in two contexts:
//   - The daemon calls RunAll at startup and refuses to serve when a check
//     fails, so jobs never start against a missing engine or unwritable
//     workspace.
//   - The CLI "vellum status" command renders individual check results to
//     show environment health.
package preflight
