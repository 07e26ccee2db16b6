package config

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode categorizes configuration errors.
type ErrorCode string

const (
	// ErrCodeFile indicates a config or .env file could not be read.
	ErrCodeFile ErrorCode = "CONFIG_FILE"

	// ErrCodeInvalid indicates a value out of range or malformed.
	ErrCodeInvalid ErrorCode = "INVALID_VALUE"

	// ErrCodeMissing indicates a required value is unset.
	ErrCodeMissing ErrorCode = "MISSING_VALUE"
)

// Error describes a configuration problem with the offending key.
type Error struct {
	Code ErrorCode
	Key  string
	Err  error
}

func (e *Error) Error() string {
	if e.Code == ErrCodeFile {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Key, e.Err)
	}
	return fmt.Sprintf("%s: %s (env %s): %v", e.Code, e.Key, EnvName(e.Key), e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsConfigError reports whether err is a configuration problem.
func IsConfigError(err error) bool {
	var ce *Error
	return errors.As(err, &ce)
}

// EnvName returns the environment variable that sets key.
func EnvName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}
