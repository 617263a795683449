//go:build linux || darwin || freebsd || netbsd || openbsd

package volume

import (
	"golang.org/x/sys/unix"

	"github.com/janelia-flyem/subvol/subvol"
)

// adviseSequential tells the kernel the mapping will be read front to back so it can
// read ahead aggressively.
func adviseSequential(b []byte) {
	if len(b) == 0 {
		return
	}
	if err := unix.Madvise(b, unix.MADV_SEQUENTIAL); err != nil {
		subvol.Debugf("madvise sequential failed: %v\n", err)
	}
}
