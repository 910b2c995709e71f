package errors

import "sort"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
	DocURL   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// Hydration (E040-E059)

	"E040": {
		Category: CategoryHydration,
		Message:  "Store state is not serializable",
		Detail:   "The store holds a value that cannot be encoded as JSON, such as a func, a channel or a cyclic structure. The state was not cleared.",
		DocURL:   "https://dumbstore.dev/docs/errors/E040",
	},
	"E041": {
		Category: CategoryHydration,
		Message:  "Malformed hydration payload",
		Detail:   "The document does not contain a hydration script of the form window['<slot>'] = <json>, or its JSON is not an object.",
		DocURL:   "https://dumbstore.dev/docs/errors/E041",
	},

	// Config (E120-E149)

	"E120": {
		Category: CategoryConfig,
		Message:  "Invalid configuration file",
		Detail:   "dumbstore.json could not be read or parsed.",
		DocURL:   "https://dumbstore.dev/docs/errors/E120",
	},
	"E141": {
		Category: CategoryConfig,
		Message:  "Configuration file not found",
		Detail:   "No dumbstore.json was found in the given directory.",
		DocURL:   "https://dumbstore.dev/docs/errors/E141",
	},
	"E142": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
		DocURL:   "https://dumbstore.dev/docs/errors/E142",
	},
}

// New creates a new StoreError from a registered error code.
func New(code string) *StoreError {
	template, ok := registry[code]
	if !ok {
		return &StoreError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &StoreError{
		Code:     code,
		Category: template.Category,
		Message:  template.Message,
		Detail:   template.Detail,
		DocURL:   template.DocURL,
	}
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// GetAllCodes returns all registered error codes in order.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
