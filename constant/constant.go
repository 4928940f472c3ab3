// file: jsbridge/constant/constant.go
package constant

import "errors"

// ----------------------------------------------------
// Standard errors
// ----------------------------------------------------

var (
	ErrBadRequest     = errors.New("invalid request")
	ErrNotFound       = errors.New("resource not found")
	ErrEmptyMessage   = errors.New("message cannot be empty")
	ErrMissingHandler = errors.New("no handler registered for command type")
)

// ----------------------------------------------------
// Build info
// ----------------------------------------------------

const (
	AppName = "jsbridge"
	Version = "0.3.0"
)

// ----------------------------------------------------
// Config paths & keys
// ----------------------------------------------------

const (
	DefaultConfigFile  = "jsbridge.json"
	EnvConfigPath      = "JSB_CONFIG"
	EnvPrefix          = "JSB_"
	DefaultSnapshotDir = "snapshots"
	DefaultHTTPAddr    = "127.0.0.1:8089"
	DefaultNATSURL     = "nats://127.0.0.1:4222"
	DefaultMaxMessage  = 16 * 1024 * 1024 // 16MB
)

// ----------------------------------------------------
// Bus subjects
// ----------------------------------------------------

const (
	SubjectInbound  = "jsbridge.in"
	SubjectOutbound = "jsbridge.out"
	HeaderError     = "Jsb-Error"
	HeaderErrorCode = "Jsb-Error-Code"
	HeaderFault     = "Jsb-Fault"
)

// ----------------------------------------------------
// Command types
// ----------------------------------------------------

const (
	MessageTypeStart     = "start"
	MessageTypeCodeFetch = "codeFetch"
	MessageTypeError     = "error"
)

// ----------------------------------------------------
// Body keys (standardized)
// ----------------------------------------------------

const (
	BodyKeyCwd             = "cwd"
	BodyKeyArgv            = "argv"
	BodyKeyVersion         = "version"
	BodyKeyModuleSpecifier = "moduleSpecifier"
	BodyKeyContainingFile  = "containingFile"
	BodyKeyModuleName      = "moduleName"
	BodyKeyFilename        = "filename"
	BodyKeySourceCode      = "sourceCode"
	BodyKeyExtensions      = "extensions"
)

// ----------------------------------------------------
// HTTP status codes
// ----------------------------------------------------

const (
	StatusBadRequest    = 400
	StatusNotFound      = 404
	StatusTooLarge      = 413
	StatusUnprocessable = 422
	StatusInternalError = 500
	StatusUnavailable   = 503
	StatusTimeout       = 504
)
