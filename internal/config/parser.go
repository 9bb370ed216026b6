package config

import (
	"fmt"

	"github.com/kangtastic/peapod/internal/eapol"
)

// parser consumes the lexer's token stream one token of lookahead at a
// time; each grammar production in spec §6.1 has a matching parseX
// method.
type parser struct {
	lex *lexer
	cur token
}

// Parse parses a complete config file into a Config, without resolving
// interface names against the live network stack or checking
// referential/range invariants; call Validate on the result.
func Parse(src []byte) (*Config, error) {
	p := &parser{lex: newLexer(src)}
	if err := p.advance(); err != nil {
		return nil, err
	}

	cfg := &Config{}
	for p.cur.kind != tokEOF {
		iface, err := p.parseIface()
		if err != nil {
			return nil, err
		}
		cfg.Ifaces = append(cfg.Ifaces, iface)
	}
	return cfg, nil
}

func (p *parser) advance() error {
	t, err := p.lex.next()
	if err != nil {
		return err
	}
	p.cur = t
	return nil
}

func (p *parser) expectIdent(word string) error {
	if p.cur.kind != tokIdent || p.cur.text != word {
		return p.errorf("expected %q", word)
	}
	return p.advance()
}

func (p *parser) expect(kind tokenKind, what string) (token, error) {
	if p.cur.kind != kind {
		return token{}, p.errorf("expected %s", what)
	}
	t := p.cur
	return t, p.advance()
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("config: line %d: "+format, append([]any{p.cur.line}, args...)...)
}

func (p *parser) parseIface() (IfaceSpec, error) {
	line := p.cur.line
	if err := p.expectIdent("iface"); err != nil {
		return IfaceSpec{}, err
	}
	name, err := p.expect(tokIdent, "interface name")
	if err != nil {
		return IfaceSpec{}, err
	}
	spec := IfaceSpec{Name: name.text, Line: line}

	if _, err := p.expect(tokLBrace, "'{'"); err != nil {
		return IfaceSpec{}, err
	}
	for p.cur.kind != tokRBrace {
		if p.cur.kind != tokIdent {
			return IfaceSpec{}, p.errorf("expected a directive inside iface %q", spec.Name)
		}
		switch p.cur.text {
		case "ingress":
			ing, err := p.parseIngress()
			if err != nil {
				return IfaceSpec{}, err
			}
			spec.Ingress = ing
		case "egress":
			eg, err := p.parseEgress()
			if err != nil {
				return IfaceSpec{}, err
			}
			spec.Egress = eg
		case "promiscuous":
			if err := p.advance(); err != nil {
				return IfaceSpec{}, err
			}
			if _, err := p.expect(tokSemi, "';'"); err != nil {
				return IfaceSpec{}, err
			}
			spec.Promiscuous = true
		case "set-mac":
			line := p.cur.line
			if err := p.advance(); err != nil {
				return IfaceSpec{}, err
			}
			str, err := p.expect(tokString, "quoted MAC address")
			if err != nil {
				return IfaceSpec{}, err
			}
			mac, err := parseMAC(str.text)
			if err != nil {
				return IfaceSpec{}, p.wrapf(line, err)
			}
			if _, err := p.expect(tokSemi, "';'"); err != nil {
				return IfaceSpec{}, err
			}
			if spec.HasSetMAC {
				return IfaceSpec{}, fmt.Errorf("config: line %d: iface %q: duplicate set-mac", line, spec.Name)
			}
			spec.HasSetMAC = true
			spec.SetMAC = mac
			spec.SetMACLine = line
		case "set-mac-from":
			line := p.cur.line
			if err := p.advance(); err != nil {
				return IfaceSpec{}, err
			}
			target, err := p.expect(tokIdent, "interface name")
			if err != nil {
				return IfaceSpec{}, err
			}
			if _, err := p.expect(tokSemi, "';'"); err != nil {
				return IfaceSpec{}, err
			}
			spec.HasSetMACFrom = true
			spec.SetMACFrom = target.text
			spec.SetMACFromLine = line
		default:
			return IfaceSpec{}, p.errorf("unrecognised directive %q in iface %q", p.cur.text, spec.Name)
		}
	}
	if err := p.advance(); err != nil { // consume '}'
		return IfaceSpec{}, err
	}
	if _, err := p.expect(tokSemi, "';'"); err != nil {
		return IfaceSpec{}, err
	}
	return spec, nil
}

func (p *parser) wrapf(line int, err error) error {
	return fmt.Errorf("config: line %d: %w", line, err)
}

func (p *parser) parseIngress() (*IngressSpec, error) {
	if err := p.expectIdent("ingress"); err != nil {
		return nil, err
	}
	if _, err := p.expect(tokLBrace, "'{'"); err != nil {
		return nil, err
	}
	spec := &IngressSpec{ByType: map[eapol.Type]string{}, ByCode: map[eapol.Code]string{}}
	for p.cur.kind != tokRBrace {
		switch {
		case p.cur.kind == tokIdent && p.cur.text == "filter":
			f, err := p.parseFilter()
			if err != nil {
				return nil, err
			}
			spec.Filter = f
		case p.cur.kind == tokIdent && p.cur.text == "exec":
			typ, path, err := p.parseExec()
			if err != nil {
				return nil, err
			}
			assignAction(spec.ByType, spec.ByCode, typ, path)
		default:
			return nil, p.errorf("expected 'filter' or 'exec' inside ingress block")
		}
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	if _, err := p.expect(tokSemi, "';'"); err != nil {
		return nil, err
	}
	return spec, nil
}

func (p *parser) parseEgress() (*EgressSpec, error) {
	if err := p.expectIdent("egress"); err != nil {
		return nil, err
	}
	if _, err := p.expect(tokLBrace, "'{'"); err != nil {
		return nil, err
	}
	spec := &EgressSpec{ByType: map[eapol.Type]string{}, ByCode: map[eapol.Code]string{}}
	for p.cur.kind != tokRBrace {
		switch {
		case p.cur.kind == tokIdent && p.cur.text == "filter":
			f, err := p.parseFilter()
			if err != nil {
				return nil, err
			}
			spec.Filter = f
		case p.cur.kind == tokIdent && p.cur.text == "exec":
			typ, path, err := p.parseExec()
			if err != nil {
				return nil, err
			}
			assignAction(spec.ByType, spec.ByCode, typ, path)
		case p.cur.kind == tokIdent && p.cur.text == "dot1q":
			tci, err := p.parseDot1q()
			if err != nil {
				return nil, err
			}
			spec.HasTCI = true
			spec.TCI = tci
		case p.cur.kind == tokIdent && p.cur.text == "no":
			if err := p.advance(); err != nil {
				return nil, err
			}
			if err := p.expectIdent("dot1q"); err != nil {
				return nil, err
			}
			if _, err := p.expect(tokSemi, "';'"); err != nil {
				return nil, err
			}
			spec.Strip = true
		default:
			return nil, p.errorf("expected a directive inside egress block")
		}
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	if _, err := p.expect(tokSemi, "';'"); err != nil {
		return nil, err
	}
	return spec, nil
}

func (p *parser) parseDot1q() (TCISpec, error) {
	if err := p.expectIdent("dot1q"); err != nil {
		return TCISpec{}, err
	}
	if _, err := p.expect(tokLBrace, "'{'"); err != nil {
		return TCISpec{}, err
	}
	var tci TCISpec
	for p.cur.kind != tokRBrace {
		if p.cur.kind != tokIdent {
			return TCISpec{}, p.errorf("expected a directive inside dot1q block")
		}
		switch p.cur.text {
		case "priority":
			n, err := p.parseNumberStmt()
			if err != nil {
				return TCISpec{}, err
			}
			tci.HasPriority, tci.Priority = true, n
		case "drop-eligible":
			n, err := p.parseNumberStmt()
			if err != nil {
				return TCISpec{}, err
			}
			tci.HasDrop, tci.Drop = true, n
		case "id":
			n, err := p.parseNumberStmt()
			if err != nil {
				return TCISpec{}, err
			}
			tci.HasID, tci.ID = true, n
		default:
			return TCISpec{}, p.errorf("unrecognised directive %q inside dot1q block", p.cur.text)
		}
	}
	if err := p.advance(); err != nil {
		return TCISpec{}, err
	}
	if _, err := p.expect(tokSemi, "';'"); err != nil {
		return TCISpec{}, err
	}
	return tci, nil
}

func (p *parser) parseNumberStmt() (int, error) {
	if err := p.advance(); err != nil { // consume keyword
		return 0, err
	}
	n, err := p.expect(tokNumber, "a number")
	if err != nil {
		return 0, err
	}
	if _, err := p.expect(tokSemi, "';'"); err != nil {
		return 0, err
	}
	return n.num, nil
}

func (p *parser) parseFilter() (FilterSpec, error) {
	if err := p.expectIdent("filter"); err != nil {
		return FilterSpec{}, err
	}
	spec := FilterSpec{Types: map[eapol.Type]bool{}, Codes: map[eapol.Code]bool{}}
	for p.cur.kind == tokIdent {
		word := p.cur.text
		if word == "all" {
			for _, t := range typeTokens {
				spec.Types[t] = true
			}
		} else if t, ok := typeTokens[word]; ok {
			spec.Types[t] = true
		} else if c, ok := codeTokens[word]; ok {
			spec.Codes[c] = true
		} else {
			return FilterSpec{}, p.errorf("unrecognised filter token %q", word)
		}
		if err := p.advance(); err != nil {
			return FilterSpec{}, err
		}
	}
	if _, err := p.expect(tokSemi, "';'"); err != nil {
		return FilterSpec{}, err
	}
	return spec, nil
}

func (p *parser) parseExec() (string, string, error) {
	if err := p.expectIdent("exec"); err != nil {
		return "", "", err
	}
	typTok, err := p.expect(tokIdent, "a Packet Type or EAP Code token")
	if err != nil {
		return "", "", err
	}
	path, err := p.expect(tokString, "quoted script path")
	if err != nil {
		return "", "", err
	}
	if _, err := p.expect(tokSemi, "';'"); err != nil {
		return "", "", err
	}
	if _, ok := typeTokens[typTok.text]; ok {
		return typTok.text, path.text, nil
	}
	if _, ok := codeTokens[typTok.text]; ok {
		return typTok.text, path.text, nil
	}
	return "", "", fmt.Errorf("config: line %d: unrecognised exec classification %q", typTok.line, typTok.text)
}

func assignAction(byType map[eapol.Type]string, byCode map[eapol.Code]string, token, path string) {
	if t, ok := typeTokens[token]; ok {
		byType[t] = path
		return
	}
	byCode[codeTokens[token]] = path
}

func parseMAC(s string) ([6]byte, error) {
	var mac [6]byte
	var parts [6]string
	n := 0
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ':' {
			if n >= 6 {
				return mac, fmt.Errorf("invalid MAC address %q", s)
			}
			parts[n] = s[start:i]
			n++
			start = i + 1
		}
	}
	if n != 6 {
		return mac, fmt.Errorf("invalid MAC address %q", s)
	}
	for i, part := range parts {
		if len(part) != 2 {
			return mac, fmt.Errorf("invalid MAC address %q", s)
		}
		v, err := hexByte(part)
		if err != nil {
			return mac, fmt.Errorf("invalid MAC address %q: %w", s, err)
		}
		mac[i] = v
	}
	return mac, nil
}

func hexByte(s string) (byte, error) {
	var v byte
	for i := 0; i < 2; i++ {
		c := s[i]
		var d byte
		switch {
		case c >= '0' && c <= '9':
			d = c - '0'
		case c >= 'a' && c <= 'f':
			d = c - 'a' + 10
		case c >= 'A' && c <= 'F':
			d = c - 'A' + 10
		default:
			return 0, fmt.Errorf("invalid hex digit %q", c)
		}
		v = v<<4 | d
	}
	return v, nil
}
