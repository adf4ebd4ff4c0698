// Package internalcheck holds source-level policy tests for the sm2 and
// sm2misuse packages.
//
// The tests load the packages with golang.org/x/tools/go/packages and walk
// their syntax trees. They reject variable-time comparisons of byte data and
// hex formatting of values that may be secret. The package has no exported
// API.
package internalcheck
