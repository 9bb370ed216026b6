//go:build linux

package rawsock

import "golang.org/x/sys/unix"

// Classic BPF opcodes used to hand-assemble the EtherType filter below.
// See Linux Documentation/networking/filter.txt.
const (
	bpfLDH  = 0x28 // BPF_LD | BPF_H | BPF_ABS
	bpfJEQK = 0x15 // BPF_JMP | BPF_JEQ | BPF_K
	bpfRETK = 0x06 // BPF_RET | BPF_K
)

// eapolEtherType is duplicated here (rather than imported from the
// eapol package) to keep this syscall-adjacent file free of any
// dependency beyond golang.org/x/sys/unix.
const eapolEtherType = 0x888E

// eapolFilter builds the classic BPF program of spec §4.2 item 2: accept
// iff the halfword at offset 12 of the post-strip L2 payload equals
// 0x888E, otherwise drop at the kernel.
func eapolFilter() []unix.SockFilter {
	return []unix.SockFilter{
		{Code: bpfLDH, Jt: 0, Jf: 0, K: 12},
		{Code: bpfJEQK, Jt: 0, Jf: 1, K: eapolEtherType},
		{Code: bpfRETK, Jt: 0, Jf: 0, K: 0xffffffff},
		{Code: bpfRETK, Jt: 0, Jf: 0, K: 0},
	}
}

func attachEAPOLFilter(fd int) error {
	prog := eapolFilter()
	fprog := unix.SockFprog{
		Len:    uint16(len(prog)),
		Filter: &prog[0],
	}
	return unix.SetsockoptSockFprog(fd, unix.SOL_SOCKET, unix.SO_ATTACH_FILTER, &fprog)
}
