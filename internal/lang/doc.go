// Package lang normalizes user-supplied language preferences.
//
// A language preference is either a lowercase code ("en", "pt-br") or the
// empty string, which means "no preference" (auto-detect). Normalization
// happens once at the pipeline boundary; downstream packages never re-derive
// codes from names.
package lang
