// Package template compiles label templates and renders catalog records into
// labels.
//
// A template is literal text interleaved with placeholders delimited by `{{`
// and `}}`. A placeholder holds one or more field paths separated by `||`; the
// first path that resolves to a non-empty value wins:
//
//	{{ displayName || name }} <{{ email }}>
//
// There are no expressions, conditionals or loops. Compiling is pure: the same
// template string always yields an equivalent Compiled value, so results can be
// memoised with Cache.
package template
