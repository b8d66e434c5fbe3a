package dispatch

import "testing"

func TestTelURI(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{"*100#", "tel:*100%23"},
		{"*555*100#", "tel:*555*100%23"},
		{"#21#", "tel:%2321%23"},
		{"*123 1#", "tel:*123%201%23"},
		{"*101+2#", "tel:*101%2B2%23"},
		{"abc-_.!~'()", "tel:abc-_.!~'()"},
	}

	for _, tt := range tests {
		if got := TelURI(tt.code); got != tt.want {
			t.Errorf("TelURI(%q) = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestOutcomeCellFirstClaimWins(t *testing.T) {
	c := newOutcomeCell()

	if !c.claim(result{kind: kindSuccess}) {
		t.Fatal("first claim lost")
	}
	if c.claim(result{kind: kindTimeout}) {
		t.Fatal("second claim won")
	}
	if got := c.wait().kind; got != kindSuccess {
		t.Fatalf("kind = %q, want %q", got, kindSuccess)
	}
}
