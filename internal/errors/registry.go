package errors

import "sort"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Config Errors (E120-E149)
	// ============================================

	"E120": {
		Category: CategoryConfig,
		Message:  "Invalid vstore.json",
		Detail:   "The configuration file could not be parsed.",
	},
	"E122": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
		Detail:   "A configuration value is out of range or has the wrong format.",
	},
	"E141": {
		Category: CategoryConfig,
		Message:  "Configuration not found",
		Detail:   "No vstore.json was found in the directory or any parent.",
	},

	// ============================================
	// CLI Errors (E150-E169)
	// ============================================

	"E150": {
		Category: CategoryCLI,
		Message:  "Invalid replay script",
		Detail:   "The replay script could not be decoded.",
	},
	"E151": {
		Category: CategoryCLI,
		Message:  "Unsupported file format",
		Detail:   "Only .json, .yaml, .yml and .toml files are supported.",
	},

	// ============================================
	// Engine Errors (E201-E229)
	// ============================================

	"E201": {
		Category: CategoryStore,
		Message:  "Unknown mutation",
		Detail:   "commit referenced a mutation that is not declared on the store.",
	},
	"E202": {
		Category: CategoryStore,
		Message:  "Invalid commit shape",
		Detail:   "commit expects a mutation name or an object carrying a type.",
	},
	"E203": {
		Category: CategoryComputed,
		Message:  "Computed property has no setter",
		Detail:   "A derived property was assigned to but declares no setter.",
	},
	"E204": {
		Category: CategoryPath,
		Message:  "Malformed path",
		Detail:   "Paths may only contain word characters, dots and brackets.",
	},
	"E205": {
		Category: CategoryStore,
		Message:  "Unknown getter",
		Detail:   "The getter is not declared on the store.",
	},
	"E206": {
		Category: CategoryStore,
		Message:  "Unknown action",
		Detail:   "dispatch referenced an action that is not declared on the store.",
	},
	"E207": {
		Category: CategoryPath,
		Message:  "Path not found",
		Detail:   "An intermediate segment of the path does not resolve to a container.",
	},
	"E208": {
		Category: CategoryPath,
		Message:  "Not an array",
		Detail:   "An array operation was applied to a value that is not an array.",
	},
}

// GetAllCodes returns all registered error codes, sorted.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a custom error template.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
