package dispatch

import "strings"

const upperhex = "0123456789ABCDEF"

// TelURI builds the tel: URI for a USSD code. Letters, digits and _-!.~'()*
// are kept; every other byte is percent-encoded, so "*100#" becomes
// "tel:*100%23".
func TelURI(code string) string {
	var b strings.Builder
	b.Grow(len("tel:") + len(code)*3)
	b.WriteString("tel:")
	for i := 0; i < len(code); i++ {
		c := code[i]
		if keepInTel(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&0x0f])
	}
	return b.String()
}

func keepInTel(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("_-!.~'()*", c) >= 0
}
