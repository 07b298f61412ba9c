//go:build !(linux || darwin || freebsd || netbsd || openbsd)

package input

type TTY struct{}

func OpenTTY() (*TTY, error) { return nil, ErrUnsupported }

func (t *TTY) Poll() (rune, bool) { return 0, false }

func (t *TTY) Close() error { return nil }
