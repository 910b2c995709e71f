// Package errors provides coded, categorised errors for dumbstore.
//
// Every failure the store can surface has a short code (e.g. "E040") that maps
// to a message, a longer explanation and a documentation link. Errors compare
// equal under errors.Is when their codes match, so callers can test against
// package-level sentinels without caring about the wrapped cause.
//
// # Error Categories
//
//   - hydration: the state could not be turned into a payload, or a payload
//     could not be read back
//   - config: dumbstore.json is missing or invalid
//   - cli: command-line usage errors
//
// # Usage
//
//	err := errors.New("E040").
//	    Wrap(cause).
//	    WithSuggestion("Remove func, chan and cyclic values from the store")
//
//	fmt.Println(err.Format())
package errors
