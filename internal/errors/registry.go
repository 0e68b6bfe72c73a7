package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
	DocURL   string
}

const docBase = "https://vango.dev/docs/vpatch/errors/"

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Reconcile / Apply Errors (E200-E209)
	// ============================================

	"E200": {
		Category: CategoryReconcile,
		Message:  "Malformed key list",
		Detail:   "Children of one parent must be either all keyed or all unkeyed, and keys must be unique among siblings.",
		DocURL:   docBase + "E200",
	},
	"E201": {
		Category: CategoryReconcile,
		Message:  "Unsupported transition",
		Detail:   "The snapshot pair has a shape for which no patch is defined.",
		DocURL:   docBase + "E201",
	},
	"E202": {
		Category: CategoryApply,
		Message:  "Host operation failed",
		Detail:   "The host tree or materializer rejected an operation while applying a patch.",
		DocURL:   docBase + "E202",
	},
	"E203": {
		Category: CategoryApply,
		Message:  "Patch target missing",
		Detail:   "A patch that mutates an existing node was applied without a target node.",
		DocURL:   docBase + "E203",
	},
	"E204": {
		Category: CategoryRender,
		Message:  "Unrenderable node",
		Detail:   "The snapshot contains a node the HTML renderer cannot serialize.",
		DocURL:   docBase + "E204",
	},

	// ============================================
	// Protocol Errors (E210-E219)
	// ============================================

	"E210": {
		Category: CategoryProtocol,
		Message:  "Truncated frame",
		Detail:   "The encoded patch tree ended before decoding completed.",
		DocURL:   docBase + "E210",
	},
	"E211": {
		Category: CategoryProtocol,
		Message:  "Unknown patch opcode",
		Detail:   "The frame contains a patch opcode this decoder does not know.",
		DocURL:   docBase + "E211",
	},
	"E212": {
		Category: CategoryProtocol,
		Message:  "Decode limit exceeded",
		Detail:   "The frame exceeds the configured depth, collection or allocation limits.",
		DocURL:   docBase + "E212",
	},
	"E213": {
		Category: CategoryProtocol,
		Message:  "Invalid snapshot document",
		Detail:   "The JSON snapshot could not be decoded into a virtual tree.",
		DocURL:   docBase + "E213",
	},

	// ============================================
	// Config Errors (E220-E229)
	// ============================================

	"E220": {
		Category: CategoryConfig,
		Message:  "Invalid configuration file",
		Detail:   "The configuration file could not be parsed.",
		DocURL:   docBase + "E220",
	},
	"E221": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
		Detail:   "A configuration value is out of range or malformed.",
		DocURL:   docBase + "E221",
	},

	// ============================================
	// Snapshot Store Errors (E230-E239)
	// ============================================

	"E230": {
		Category: CategorySnapshot,
		Message:  "Snapshot not found",
		Detail:   "The snapshot URI does not resolve to a readable object.",
		DocURL:   docBase + "E230",
	},
	"E231": {
		Category: CategorySnapshot,
		Message:  "Unsupported snapshot URI",
		Detail:   "Only file paths and s3:// URIs are supported.",
		DocURL:   docBase + "E231",
	},
	"E232": {
		Category: CategorySnapshot,
		Message:  "Snapshot store failed",
		Detail:   "The snapshot store backend rejected the operation or is closed.",
		DocURL:   docBase + "E232",
	},

	// ============================================
	// Session Errors (E250-E259)
	// ============================================

	"E250": {
		Category: CategorySession,
		Message:  "Session limit reached",
		Detail:   "The server already holds the maximum number of live sessions.",
		DocURL:   docBase + "E250",
	},
	"E251": {
		Category: CategorySession,
		Message:  "Session not found",
		Detail:   "No live session has the requested ID. It may have expired.",
		DocURL:   docBase + "E251",
	},
	"E252": {
		Category: CategorySession,
		Message:  "Session closed",
		Detail:   "The session was closed before the operation completed.",
		DocURL:   docBase + "E252",
	},
	"E253": {
		Category: CategorySession,
		Message:  "Sequence out of range",
		Detail:   "The peer acknowledged a frame sequence the session never produced.",
		DocURL:   docBase + "E253",
	},

	// ============================================
	// CLI Errors (E240-E249)
	// ============================================

	"E240": {
		Category: CategoryCLI,
		Message:  "Invalid arguments",
		Detail:   "The command was invoked with missing or extra arguments.",
		DocURL:   docBase + "E240",
	},
}

// GetAllCodes returns all registered error codes.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
