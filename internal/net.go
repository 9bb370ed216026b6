package internal

import "net"

// InterfaceByName resolves a configured interface name to its kernel index
// and MTU at startup.
func InterfaceByName(name string) (*net.Interface, error) {
	return net.InterfaceByName(name)
}
