//go:build linux || darwin || freebsd || netbsd || openbsd

package input

import (
	"errors"
	"os"
	"syscall"
	"unicode/utf8"

	"golang.org/x/sys/unix"
)

// TTY polls the controlling terminal without blocking. Open switches the
// terminal to non-canonical, no-echo mode; Close restores it.
type TTY struct {
	fd      int
	owned   bool
	saved   *unix.Termios
	pending []byte
	buf     [64]byte
}

// OpenTTY opens /dev/tty, falling back to stdin when there is none.
func OpenTTY() (*TTY, error) {
	t := &TTY{fd: int(os.Stdin.Fd())}
	fd, err := unix.Open("/dev/tty", unix.O_RDONLY|unix.O_CLOEXEC, 0)
	switch {
	case err == nil:
		t.fd, t.owned = fd, true
	case !errors.Is(err, syscall.ENOENT) && !errors.Is(err, syscall.ENXIO):
		return nil, err
	}

	saved, err := unix.IoctlGetTermios(t.fd, ioctlGetTermios)
	if err != nil {
		t.closeFD()
		return nil, err
	}
	raw := *saved
	raw.Lflag &^= unix.ICANON | unix.ECHO
	raw.Cc[unix.VMIN] = 1
	raw.Cc[unix.VTIME] = 0
	if err := unix.IoctlSetTermios(t.fd, ioctlSetTermios, &raw); err != nil {
		t.closeFD()
		return nil, err
	}
	t.saved = saved

	if err := unix.SetNonblock(t.fd, true); err != nil {
		_ = t.Close()
		return nil, err
	}
	return t, nil
}

// Poll implements sched.Input. Multi-byte UTF-8 sequences are assembled
// across probes.
func (t *TTY) Poll() (rune, bool) {
	if r, ok := t.decode(); ok {
		return r, true
	}
	n, err := unix.Read(t.fd, t.buf[:])
	if err != nil || n <= 0 {
		return 0, false
	}
	t.pending = append(t.pending, t.buf[:n]...)
	return t.decode()
}

func (t *TTY) decode() (rune, bool) {
	if len(t.pending) == 0 || !utf8.FullRune(t.pending) {
		return 0, false
	}
	r, size := utf8.DecodeRune(t.pending)
	t.pending = t.pending[size:]
	return r, true
}

// Close restores the terminal mode and releases the descriptor.
func (t *TTY) Close() error {
	var errs []error
	if err := unix.SetNonblock(t.fd, false); err != nil {
		errs = append(errs, err)
	}
	if t.saved != nil {
		if err := unix.IoctlSetTermios(t.fd, ioctlSetTermios, t.saved); err != nil {
			errs = append(errs, err)
		}
		t.saved = nil
	}
	if err := t.closeFD(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (t *TTY) closeFD() error {
	if !t.owned {
		return nil
	}
	t.owned = false
	return unix.Close(t.fd)
}
