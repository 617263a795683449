//go:build !(linux || darwin || freebsd || netbsd || openbsd)

package volume

func adviseSequential(b []byte) {}
