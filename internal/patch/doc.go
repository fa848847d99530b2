// Package patch converts unified diff text into concrete line-number sets.
//
// Only chunk headers (the @@ -a,b +c,d @@ lines) are consulted: the declared
// ranges are expanded into the absolute line numbers removed from the base
// revision and added in the head revision. Content lines are never parsed.
// This mirrors the behavior of consuming `git diff -U0` output, where the
// header ranges alone describe every changed line.
package patch
