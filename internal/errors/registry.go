package errors

import (
	crdb "github.com/cockroachdb/errors"
	"github.com/vango-dev/vpatch/internal/config"
	"github.com/vango-dev/vpatch/pkg/dom"
	"github.com/vango-dev/vpatch/pkg/protocol"
	"github.com/vango-dev/vpatch/pkg/snapshot"
	"github.com/vango-dev/vpatch/pkg/stream"
	"github.com/vango-dev/vpatch/pkg/updater"
	"github.com/vango-dev/vpatch/pkg/vdom"
)

// Template defines a registered error type.
type Template struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
}

// registry maps error codes to their templates.
var registry = map[string]Template{
	// Snapshot errors (V001-V009)
	"V001": {
		Category:   CategorySnapshot,
		Message:    "Snapshot file is malformed",
		Detail:     "Each YAML document must be an element mapping with a tag, a text mapping, or a bare string.",
		Suggestion: "Elements look like {tag: div, attrs: {...}, children: [...]}; text is a string or {text: ...}",
	},
	"V002": {
		Category: CategorySnapshot,
		Message:  "Snapshot tree is invalid",
		Detail:   "Text nodes cannot carry children, attributes or event handlers, and every element needs a non-empty tag.",
	},
	"V003": {
		Category:   CategorySnapshot,
		Message:    "Not enough snapshots",
		Detail:     "The command needs more snapshot documents than the input provides.",
		Suggestion: "Separate snapshots in one file with a line containing ---",
	},
	"V004": {
		Category: CategorySnapshot,
		Message:  "Snapshot file not readable",
	},

	// Apply errors (V010-V019)
	"V010": {
		Category: CategoryApply,
		Message:  "Patch index does not address a live node",
		Detail: "The live tree is not shaped like the snapshot the patches were computed against. " +
			"This is an internal consistency failure, usually a render target that enumerates children out of order.",
	},
	"V011": {
		Category: CategoryApply,
		Message:  "Render target rejected an operation",
		Detail:   "A primitive create, attribute, text or child operation failed. The live tree may be partially updated.",
	},
	"V012": {
		Category:   CategoryApply,
		Message:    "Live tree diverged",
		Detail:     "An earlier render cycle failed, so the live tree no longer matches any known snapshot.",
		Suggestion: "Reset the live tree from a full snapshot",
	},

	// Protocol errors (V020-V029)
	"V020": {
		Category: CategoryProtocol,
		Message:  "Malformed wire frame",
		Detail:   "A frame or payload could not be decoded or exceeded a decoding limit.",
	},
	"V021": {
		Category: CategoryProtocol,
		Message:  "Frame out of sequence",
		Detail:   "A patches frame was skipped or repeated. Applying it would address the wrong nodes.",
	},
	"V022": {
		Category: CategoryProtocol,
		Message:  "Server reported an error",
	},

	// Config errors (V030-V039)
	"V030": {
		Category:   CategoryConfig,
		Message:    "Configuration file not found",
		Suggestion: "Create vpatch.json or pass --config",
	},
	"V031": {
		Category: CategoryConfig,
		Message:  "Configuration is invalid",
	},

	// CLI errors (V040-V049)
	"V040": {
		Category: CategoryCLI,
		Message:  "Connection failed",
		Detail:   "The WebSocket endpoint could not be reached or closed the connection.",
	},
	"V041": {
		Category: CategoryCLI,
		Message:  "Server failed",
	},
	"V042": {
		Category: CategoryCLI,
		Message:  "Command failed",
	},
	"V043": {
		Category:   CategoryCLI,
		Message:    "Live tree does not match the snapshot",
		Detail:     "After a successful render cycle the live tree must be structurally equal to the new snapshot.",
		Suggestion: "Run vpatch diff on the two snapshots and report the script",
	},
}

// classes maps library sentinel errors to codes, most specific first.
var classes = []struct {
	sentinel error
	code     string
}{
	{config.ErrNotFound, "V030"},
	{config.ErrInvalid, "V031"},
	{snapshot.ErrMalformed, "V001"},
	{vdom.ErrUnresolvedIndex, "V010"},
	{updater.ErrDiverged, "V012"},
	{dom.ErrNotElement, "V011"},
	{dom.ErrNotText, "V011"},
	{dom.ErrOutOfRange, "V011"},
	{dom.ErrHasParent, "V011"},
	{dom.ErrInvalidVNode, "V011"},
	{stream.ErrSequenceGap, "V021"},
	{protocol.ErrInvalidPatch, "V020"},
	{protocol.ErrInvalidNode, "V020"},
	{protocol.ErrInvalidFrameType, "V020"},
	{protocol.ErrFrameTooLarge, "V020"},
	{protocol.ErrTrailingBytes, "V020"},
	{protocol.ErrMaxDepthExceeded, "V020"},
	{protocol.ErrAllocationTooLarge, "V020"},
	{protocol.ErrCollectionTooLarge, "V020"},
	{vdom.ErrNilNode, "V002"},
	{vdom.ErrTextHasChildren, "V002"},
	{vdom.ErrTextHasAttributes, "V002"},
	{vdom.ErrTextHasEvents, "V002"},
	{vdom.ErrEmptyTag, "V002"},
	{vdom.ErrUnknownKind, "V002"},
}

// Classify returns err as a coded Error, choosing the code from the first
// known sentinel err wraps. Errors that already contain an Error are
// returned unchanged; unknown errors get fallback.
func Classify(err error, fallback string) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if crdb.As(err, &e) {
		return e
	}
	var em *protocol.ErrorMessage
	if crdb.As(err, &em) {
		return New("V022").Wrap(err)
	}
	for _, c := range classes {
		if crdb.Is(err, c.sentinel) {
			return New(c.code).Wrap(err)
		}
	}
	return New(fallback).Wrap(err)
}
