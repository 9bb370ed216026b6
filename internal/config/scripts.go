package config

import (
	"fmt"
	"path/filepath"

	"github.com/kangtastic/peapod/internal/eapol"
	"golang.org/x/sys/unix"
)

// CheckScriptPaths enforces the grammar note of spec §6.1: "script
// paths must be absolute, canonical, and executable for the effective
// user at config-load time." Kept separate from Validate so that
// function stays exercisable without a real filesystem; this one is
// only meaningful against the host peapod actually runs on.
func CheckScriptPaths(cfg *Config) error {
	for _, iface := range cfg.Ifaces {
		if iface.Ingress != nil {
			if err := checkActionPaths(iface.Name, iface.Ingress.ByType, iface.Ingress.ByCode); err != nil {
				return err
			}
		}
		if iface.Egress != nil {
			if err := checkActionPaths(iface.Name, iface.Egress.ByType, iface.Egress.ByCode); err != nil {
				return err
			}
		}
	}
	return nil
}

func checkActionPaths(ifaceName string, byType map[eapol.Type]string, byCode map[eapol.Code]string) error {
	for _, path := range byType {
		if err := checkScriptPath(ifaceName, path); err != nil {
			return err
		}
	}
	for _, path := range byCode {
		if err := checkScriptPath(ifaceName, path); err != nil {
			return err
		}
	}
	return nil
}

func checkScriptPath(ifaceName, path string) error {
	if !filepath.IsAbs(path) {
		return fmt.Errorf("config: iface %q: script path %q is not absolute", ifaceName, path)
	}
	if filepath.Clean(path) != path {
		return fmt.Errorf("config: iface %q: script path %q is not canonical", ifaceName, path)
	}
	if err := unix.Access(path, unix.X_OK); err != nil {
		return fmt.Errorf("config: iface %q: script %q is not executable: %w", ifaceName, path, err)
	}
	return nil
}
