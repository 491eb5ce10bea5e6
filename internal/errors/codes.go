package errors

// Generic error code definitions used as sensible defaults across modules.
const (
	CodeSystemGeneric     = "SYS-000"
	CodeFilesystemGeneric = "FS-000"
	CodeConfigGeneric     = "CFG-000"
	CodeValidationGeneric = "VAL-000"
	CodeDependencyGeneric = "DEP-000"
	CodeVPNGeneric        = "VPN-000"
	CodeDatabaseGeneric   = "DB-000"
)
