package host

import "fmt"

// MaxKeyLength is the longest kernel path accepted by the Store* functions.
const MaxKeyLength = 250

// ValidatePath checks p against the kernel path rules.
func ValidatePath(p string) error {
	if len(p) > MaxKeyLength {
		return fmt.Errorf("%w: %d bytes", ErrStoreKeyTooLarge, len(p))
	}
	if p == "/" {
		return nil
	}
	if p == "" || p[0] != '/' {
		return fmt.Errorf("%w: %q must start with /", ErrStoreInvalidKey, p)
	}

	segment := 0
	for i := 1; i < len(p); i++ {
		c := p[i]
		switch {
		case c == '/':
			if segment == 0 {
				return fmt.Errorf("%w: %q has an empty segment", ErrStoreInvalidKey, p)
			}
			segment = 0
		case isPathByte(c):
			segment++
		default:
			return fmt.Errorf("%w: %q contains %q", ErrStoreInvalidKey, p, c)
		}
	}
	if segment == 0 {
		return fmt.Errorf("%w: %q has an empty segment", ErrStoreInvalidKey, p)
	}
	return nil
}

func isPathByte(c byte) bool {
	return c >= 'a' && c <= 'z' ||
		c >= 'A' && c <= 'Z' ||
		c >= '0' && c <= '9' ||
		c == '.' || c == '_' || c == '-'
}
