// Package errors provides structured, actionable error messages for the
// vpatch command.
//
// Library packages report failures with sentinel errors wrapped by
// github.com/cockroachdb/errors. At the command boundary, Classify maps
// those failures to a coded Error that explains what went wrong and how
// to fix it.
//
// # Error Categories
//
//   - snapshot: a snapshot file could not be read or is not a valid tree
//   - apply: a patch script could not be applied to the live tree
//   - protocol: a wire frame was malformed or out of sequence
//   - config: the configuration file is missing or invalid
//   - cli: bad command-line usage or a network failure
//
// # Usage
//
//	err := errors.New("V001").
//	    WithLocation("states.yaml", 4, 3).
//	    WithSuggestion("Every element needs a tag key")
//
//	fmt.Print(err.Format())
//	// Output:
//	// ERROR V001: Snapshot file is malformed
//	//
//	//   states.yaml:4:3
//	//
//	//       2 │ children:
//	//       3 │   - attrs: {id: x}
//	//   →   4 │     children: []
//	//         │   ^
//	//
//	//   Hint: Every element needs a tag key
package errors
