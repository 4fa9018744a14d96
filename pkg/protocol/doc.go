// Package protocol implements the binary wire format used to ship patch
// scripts and snapshots to a remote render target.
//
// # Wire Format
//
// Every message is a frame with a 6-byte header:
//
//	┌─────────────┬──────────────┬───────────────────────────────┐
//	│ Frame Type  │ Flags        │ Payload Length                │
//	│ (1 byte)    │ (1 byte)     │ (4 bytes, big-endian)         │
//	└─────────────┴──────────────┴───────────────────────────────┘
//
// # Frame Types
//
//   - FrameSnapshot (0x01): a full tree, sent once when a session starts
//   - FramePatches (0x02): one render cycle's patch script
//   - FrameError (0x03): an error report, possibly fatal
//
// # Encoding
//
//   - Varint: unsigned integers, protobuf-style
//   - Length-prefixed: strings prefixed with their varint byte length
//   - Big-endian: the fixed-width integers of the frame header and error codes
//
// # Patches
//
// A patches payload is a sequence number followed by the patch count and
// the patches in emission order. Each patch is its op byte, the preorder
// index of its target, and op-specific data:
//
//	AddAttributes     [count] ([key][value])*   keys ascending
//	RemoveAttributes  [count] ([key])*          keys ascending
//	AppendChildren    [count] (node)*
//	TruncateChildren  [keep]
//	Replace           node
//	ChangeText        [text]
//
// A node is its kind byte followed by the text for text nodes, or by the
// tag, the sorted attributes and the children for elements. Encoding is
// deterministic: equal inputs always produce identical bytes.
//
// # Limits
//
// Decoding enforces the allocation, collection and nesting limits in
// Limits, so a hostile peer cannot force large allocations or deep
// recursion.
package protocol
