//go:build linux

package rawsock

import (
	"fmt"
	"os"
	"syscall"
	"unsafe"
)

// ifreq mirrors struct ifreq: a fixed interface name followed by a
// union big enough for the ioctl requests this file issues (hwaddr,
// flags, mtu). Grounded on the teacher's internal/tap.go ifreq helper.
type ifreq struct {
	Name [syscall.IFNAMSIZ]byte
	Data [24]byte
}

func newIfreq(name string) ifreq {
	var ifr ifreq
	copy(ifr.Name[:], name)
	return ifr
}

func (ifr *ifreq) ptr() unsafe.Pointer { return unsafe.Pointer(ifr) }

func ioctl(fd int, request uintptr, argp unsafe.Pointer) error {
	_, _, errno := syscall.Syscall(syscall.SYS_IOCTL, uintptr(fd), request, uintptr(argp))
	if errno != 0 {
		return os.NewSyscallError("ioctl", errno)
	}
	return nil
}

const safamilyHW6 = 1

func ioctlSocket() (int, error) {
	return syscall.Socket(syscall.AF_INET, syscall.SOCK_DGRAM, 0)
}

// getHWAddr reads an interface's current MAC address via SIOCGIFHWADDR.
func getHWAddr(name string) (hw [6]byte, err error) {
	sock, err := ioctlSocket()
	if err != nil {
		return hw, err
	}
	defer syscall.Close(sock)

	ifr := newIfreq(name)
	if err := ioctl(sock, syscall.SIOCGIFHWADDR, ifr.ptr()); err != nil {
		return hw, err
	}
	family := *(*uint16)(unsafe.Pointer(&ifr.Data[0]))
	if family != safamilyHW6 {
		return hw, fmt.Errorf("rawsock: %s: unexpected sa_family %d reading hwaddr", name, family)
	}
	copy(hw[:], ifr.Data[2:8])
	return hw, nil
}

func getFlags(name string) (uint16, error) {
	sock, err := ioctlSocket()
	if err != nil {
		return 0, err
	}
	defer syscall.Close(sock)

	ifr := newIfreq(name)
	if err := ioctl(sock, syscall.SIOCGIFFLAGS, ifr.ptr()); err != nil {
		return 0, err
	}
	return *(*uint16)(unsafe.Pointer(&ifr.Data[0])), nil
}

func setFlags(name string, flags uint16) error {
	sock, err := ioctlSocket()
	if err != nil {
		return err
	}
	defer syscall.Close(sock)

	ifr := newIfreq(name)
	*(*uint16)(unsafe.Pointer(&ifr.Data[0])) = flags
	return ioctl(sock, syscall.SIOCSIFFLAGS, ifr.ptr())
}

func setHWAddrRaw(name string, hw [6]byte) error {
	sock, err := ioctlSocket()
	if err != nil {
		return err
	}
	defer syscall.Close(sock)

	ifr := newIfreq(name)
	*(*uint16)(unsafe.Pointer(&ifr.Data[0])) = safamilyHW6
	copy(ifr.Data[2:8], hw[:])
	return ioctl(sock, syscall.SIOCSIFHWADDR, ifr.ptr())
}

// setHWAddr implements spec §4.2's MAC mutation contract: read current
// MAC; no-op if identical; else down, set, up, and read back to
// confirm. Bringing the interface down invalidates sockets bound to it,
// which is why the event loop treats the following EPOLLERR as
// expected (spec §4.2, §9 oneshot open question).
func setHWAddr(name string, hw [6]byte) error {
	cur, err := getHWAddr(name)
	if err != nil {
		return err
	}
	if cur == hw {
		return nil
	}

	flags, err := getFlags(name)
	if err != nil {
		return err
	}
	if err := setFlags(name, flags&^syscall.IFF_UP); err != nil {
		return fmt.Errorf("rawsock: %s: bringing down for mac change: %w", name, err)
	}
	if err := setHWAddrRaw(name, hw); err != nil {
		return fmt.Errorf("rawsock: %s: setting hwaddr: %w", name, err)
	}
	if err := setFlags(name, flags|syscall.IFF_UP); err != nil {
		return fmt.Errorf("rawsock: %s: bringing back up after mac change: %w", name, err)
	}

	got, err := getHWAddr(name)
	if err != nil {
		return err
	}
	if got != hw {
		return fmt.Errorf("rawsock: %s: hwaddr mismatch after set: got %x want %x", name, got, hw)
	}
	return nil
}

func getMTU(name string) (int, error) {
	sock, err := ioctlSocket()
	if err != nil {
		return 0, err
	}
	defer syscall.Close(sock)

	ifr := newIfreq(name)
	if err := ioctl(sock, syscall.SIOCGIFMTU, ifr.ptr()); err != nil {
		return 0, err
	}
	return int(*(*int32)(unsafe.Pointer(&ifr.Data[0]))), nil
}
