// SPDX-License-Identifier: MIT

package daemon

import "errors"

var (
	// ErrManagerNotStarted is returned by Shutdown before Start ran.
	ErrManagerNotStarted = errors.New("daemon manager not started")

	// ErrMissingLogger means Deps carried a disabled logger.
	ErrMissingLogger = errors.New("missing logger")

	// ErrMissingAPIHandler means Deps carried no API handler.
	ErrMissingAPIHandler = errors.New("missing API handler")
)
