package mm

import "firestige.xyz/gsml3/internal/l3"

// optionalIE binds an information element identifier to its decoder. The
// decoder receives the offset of the identifier octet.
type optionalIE struct {
	iei    uint8
	decode func(f *l3.Frame, pos int) (int, error)
}

// decodeOptionals walks the optional elements that follow the mandatory part.
// Unknown elements are skipped; trailing octets that do not form an element
// end the walk without error.
func decodeOptionals(f *l3.Frame, pos int, ies ...optionalIE) (int, error) {
	for {
		iei, ok := l3.PeekIEI(f, pos)
		if !ok {
			return pos, nil
		}
		matched := false
		for _, ie := range ies {
			if ie.iei != iei {
				continue
			}
			next, err := ie.decode(f, pos)
			if err != nil {
				return next, err
			}
			pos, matched = next, true
			break
		}
		if matched {
			continue
		}
		next, err := l3.SkipIE(f, pos)
		if err != nil {
			return pos, nil
		}
		pos = next
	}
}

func writeIEI(f *l3.Frame, pos int, iei uint8) (int, error) {
	if err := f.WriteField(pos, uint64(iei), 8); err != nil {
		return pos, err
	}
	return pos + 8, nil
}
