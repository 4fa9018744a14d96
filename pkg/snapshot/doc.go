// Package snapshot reads and writes snapshot trees as YAML.
//
// An element is a mapping with a tag and optional attrs and children.
// A text node is either a bare string or a mapping with a single text key:
//
//	tag: ul
//	attrs: {class: list}
//	children:
//	  - tag: li
//	    children: [first]
//	  - tag: li
//	    children:
//	      - text: "second"
//
// An attribute with a null value is a boolean attribute and is stored with
// the empty string. Scalars of other types are formatted with fmt.
//
// Several trees may share one stream as separate YAML documents; ParseAll
// returns them in order, which is how state sequences are written for the
// vpatch command and the diff test corpus.
package snapshot
