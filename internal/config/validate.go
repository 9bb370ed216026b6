package config

import "fmt"

// Validate enforces the config-acceptance invariants of spec §8 that
// require seeing the whole file at once: interface count, set-mac-from
// referential integrity, and dot1q field ranges. (The "two set-mac
// directives on one interface" property is already rejected by the
// parser, which has only one interface's directives in scope at a
// time.)
func Validate(cfg *Config) error {
	if len(cfg.Ifaces) < 2 {
		return fmt.Errorf("config: at least two iface blocks are required, got %d", len(cfg.Ifaces))
	}

	names := make(map[string]bool, len(cfg.Ifaces))
	for _, iface := range cfg.Ifaces {
		names[iface.Name] = true
	}

	for _, iface := range cfg.Ifaces {
		if iface.HasSetMACFrom {
			if iface.SetMACFrom == iface.Name {
				return fmt.Errorf("config: line %d: iface %q: set-mac-from cannot reference itself", iface.SetMACFromLine, iface.Name)
			}
			if !names[iface.SetMACFrom] {
				return fmt.Errorf("config: line %d: iface %q: set-mac-from references undefined interface %q", iface.SetMACFromLine, iface.Name, iface.SetMACFrom)
			}
		}
		if iface.Egress != nil && iface.Egress.HasTCI {
			if err := validateTCI(iface.Name, iface.Egress.TCI); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateTCI(ifaceName string, t TCISpec) error {
	if t.HasPriority && (t.Priority < 0 || t.Priority > 7) {
		return fmt.Errorf("config: iface %q: priority %d out of range [0,7]", ifaceName, t.Priority)
	}
	if t.HasDrop && (t.Drop < 0 || t.Drop > 1) {
		return fmt.Errorf("config: iface %q: drop-eligible %d out of range [0,1]", ifaceName, t.Drop)
	}
	if t.HasID && (t.ID < 0 || t.ID > 4094) {
		return fmt.Errorf("config: iface %q: id %d out of range [0,4094]", ifaceName, t.ID)
	}
	return nil
}
