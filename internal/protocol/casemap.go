package protocol

// Fold maps name to its RFC 1459 lower case form. In addition to ASCII
// letters, the characters []\~ are the upper case forms of {}|^.
func Fold(name string) string {
	var buf []byte
	for i := 0; i < len(name); i++ {
		c := foldByte(name[i])
		if c == name[i] && buf == nil {
			continue
		}
		if buf == nil {
			buf = make([]byte, len(name))
			copy(buf, name[:i])
		}
		buf[i] = c
	}
	if buf == nil {
		return name
	}
	return string(buf)
}

// EqualFold reports whether a and b name the same nickname or channel.
func EqualFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		if foldByte(a[i]) != foldByte(b[i]) {
			return false
		}
	}
	return true
}

func foldByte(c byte) byte {
	switch {
	case 'A' <= c && c <= 'Z':
		return c + ('a' - 'A')
	case c == '[':
		return '{'
	case c == ']':
		return '}'
	case c == '\\':
		return '|'
	case c == '~':
		return '^'
	}
	return c
}
