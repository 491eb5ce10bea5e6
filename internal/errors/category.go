package errors

// ErrorCategory groups related application errors for unified handling.
type ErrorCategory string

const (
	ErrCategorySystem     ErrorCategory = "SYSTEM"
	ErrCategoryFilesystem ErrorCategory = "FILESYSTEM"
	ErrCategoryConfig     ErrorCategory = "CONFIG"
	ErrCategoryValidation ErrorCategory = "VALIDATION"
	ErrCategoryDependency ErrorCategory = "DEPENDENCY"
	ErrCategoryVPN        ErrorCategory = "VPN"
	ErrCategoryDatabase   ErrorCategory = "DATABASE"
)
