package config

import (
	"fmt"

	"github.com/kangtastic/peapod/internal/eapol"
	"github.com/kangtastic/peapod/internal/ifacetable"
	"github.com/kangtastic/peapod/internal/policy"
)

// Resolver maps an interface name to its kernel-assigned index and
// MTU, as discovered at startup (spec §3, "mtu ... discovered at
// startup"). net.InterfaceByName backs the production implementation;
// tests supply a fake.
type Resolver func(name string) (index, mtu int, err error)

// Resolve validates cfg and builds the ifacetable.Table the event loop
// consumes, resolving each interface name against the host's network
// stack via resolve. Sockets are left nil; the caller (component D's
// owner) opens them once the table is built.
func Resolve(cfg *Config, resolve Resolver) (*ifacetable.Table, error) {
	if err := Validate(cfg); err != nil {
		return nil, err
	}

	records := make([]*ifacetable.Record, 0, len(cfg.Ifaces))
	byName := make(map[string]*ifacetable.Record, len(cfg.Ifaces))

	for _, iface := range cfg.Ifaces {
		index, mtu, err := resolve(iface.Name)
		if err != nil {
			return nil, fmt.Errorf("config: iface %q: %w", iface.Name, err)
		}
		r := ifacetable.NewRecord(iface.Name, index, mtu)
		r.Promiscuous = iface.Promiscuous
		if iface.HasSetMAC {
			r.StaticMAC = ifacetable.StaticMAC{Addr: iface.SetMAC, Pending: true}
		}
		if iface.Ingress != nil {
			r.Ingress = buildIngressPolicy(iface.Ingress)
		}
		if iface.Egress != nil {
			r.Egress = buildEgressPolicy(iface.Egress)
		}
		records = append(records, r)
		byName[iface.Name] = r
	}

	// set-mac-from references are by name in the config but by index
	// in the interface table (spec §3); resolve the second pass now
	// that every record's index is known.
	for i, iface := range cfg.Ifaces {
		if iface.HasSetMACFrom {
			records[i].LearnMACFrom = byName[iface.SetMACFrom].Index
		}
	}

	return ifacetable.New(records)
}

func buildIngressPolicy(spec *IngressSpec) *policy.IngressPolicy {
	p := &policy.IngressPolicy{}
	if len(spec.Filter.Types) > 0 || len(spec.Filter.Codes) > 0 {
		p.Filter = buildFilterMask(spec.Filter)
	}
	if len(spec.ByType) > 0 || len(spec.ByCode) > 0 {
		p.Action = buildActionTable(spec.ByType, spec.ByCode)
	}
	return p
}

func buildEgressPolicy(spec *EgressSpec) *policy.EgressPolicy {
	p := &policy.EgressPolicy{}
	switch {
	case spec.Strip:
		p.TCI = &policy.TCIDirective{Strip: true}
	case spec.HasTCI:
		p.TCI = &policy.TCIDirective{
			PCP: fieldOverride(spec.TCI.HasPriority, spec.TCI.Priority),
			DEI: fieldOverride(spec.TCI.HasDrop, spec.TCI.Drop),
			VID: fieldOverride(spec.TCI.HasID, spec.TCI.ID),
		}
	}
	if len(spec.Filter.Types) > 0 || len(spec.Filter.Codes) > 0 {
		p.Filter = buildFilterMask(spec.Filter)
	}
	if len(spec.ByType) > 0 || len(spec.ByCode) > 0 {
		p.Action = buildActionTable(spec.ByType, spec.ByCode)
	}
	return p
}

func fieldOverride(set bool, v int) policy.FieldOverride {
	return policy.FieldOverride{Set: set, Value: uint16(v)}
}

func buildFilterMask(spec FilterSpec) *policy.FilterMask {
	m := &policy.FilterMask{}
	for t := range spec.Types {
		m.Types[t] = true
	}
	for c := range spec.Codes {
		m.Codes[c] = true
	}
	return m
}

func buildActionTable(byType map[eapol.Type]string, byCode map[eapol.Code]string) *policy.ActionTable {
	a := &policy.ActionTable{}
	for t, path := range byType {
		a.ByType[t] = path
	}
	for c, path := range byCode {
		a.ByCode[c] = path
	}
	return a
}
