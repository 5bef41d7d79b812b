//go:build linux || darwin || freebsd || netbsd || openbsd

package mmap

import (
	"os"

	"golang.org/x/sys/unix"
)

func mapFile(f *os.File, size int) ([]byte, func() error, error) {
	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, nil, os.NewSyscallError("mmap", err)
	}
	// Each section is streamed front to back.
	_ = unix.Madvise(data, unix.MADV_SEQUENTIAL) //nolint:errcheck // advisory only
	return data, func() error {
		return os.NewSyscallError("munmap", unix.Munmap(data))
	}, nil
}
