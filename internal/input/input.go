// Package input provides character sources for the scheduler's ReadChar.
// Every source is non-blocking: Poll reports false when nothing is available.
package input

import "errors"

// ErrUnsupported is returned by OpenTTY on platforms without termios.
var ErrUnsupported = errors.New("tty input not supported on this platform")
