package xnet

import (
	"net"
	"os"

	"golang.org/x/sys/unix"
)

// listenTCP creates the listening socket by hand so the caller's backlog
// reaches listen(2); net.Listen always uses the system maximum.
func listenTCP(address string, backlog int) (net.Listener, error) {
	addr, err := net.ResolveTCPAddr("tcp", address)
	if err != nil {
		return nil, err
	}

	family := unix.AF_INET
	var sa unix.Sockaddr
	if ip4 := addr.IP.To4(); ip4 != nil || addr.IP == nil {
		in := &unix.SockaddrInet4{Port: addr.Port}
		copy(in.Addr[:], ip4)
		sa = in
	} else {
		family = unix.AF_INET6
		in := &unix.SockaddrInet6{Port: addr.Port}
		copy(in.Addr[:], addr.IP.To16())
		sa = in
	}

	fd, err := unix.Socket(family, unix.SOCK_STREAM, unix.IPPROTO_TCP)
	if err != nil {
		return nil, os.NewSyscallError("socket", err)
	}
	unix.CloseOnExec(fd)

	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		_ = unix.Close(fd)
		return nil, os.NewSyscallError("setsockopt", err)
	}
	if err := unix.Bind(fd, sa); err != nil {
		_ = unix.Close(fd)
		return nil, os.NewSyscallError("bind", err)
	}
	if backlog <= 0 {
		backlog = unix.SOMAXCONN
	}
	if err := unix.Listen(fd, backlog); err != nil {
		_ = unix.Close(fd)
		return nil, os.NewSyscallError("listen", err)
	}

	// FileListener duplicates the descriptor; the original is closed with f.
	f := os.NewFile(uintptr(fd), "tcp:"+address)
	defer func() { _ = f.Close() }()
	return net.FileListener(f)
}
