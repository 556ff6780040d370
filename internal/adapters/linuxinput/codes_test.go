//go:build linux

package linuxinput

import "testing"

func TestParseCode(t *testing.T) {
	tests := []struct {
		raw      string
		expected uint16
	}{
		{raw: "BTN_LEFT", expected: CodeBTNLeft},
		{raw: "btn_extra", expected: CodeBTNExtra},
		{raw: " BTN_SIDE ", expected: CodeBTNSide},
		{raw: "275", expected: 275},
		{raw: "0x113", expected: 0x113},
		{raw: "KEY_F8", expected: 66},
	}

	for _, tc := range tests {
		got, err := ParseCode(tc.raw)
		if err != nil {
			t.Fatalf("ParseCode(%q) returned error: %v", tc.raw, err)
		}
		if got != tc.expected {
			t.Fatalf("ParseCode(%q)=%d, want %d", tc.raw, got, tc.expected)
		}
	}

	for _, raw := range []string{"", "KEY_NOPE", "-1", "70000"} {
		if _, err := ParseCode(raw); err == nil {
			t.Fatalf("ParseCode(%q) expected error", raw)
		}
	}
}

func TestFormatAndDescribeCode(t *testing.T) {
	if name := FormatCodeName(CodeBTNExtra); name != "BTN_EXTRA" {
		t.Fatalf("FormatCodeName(CodeBTNExtra)=%q, want BTN_EXTRA", name)
	}
	if name := FormatCodeName(0xFFF0); name != "65520" {
		t.Fatalf("FormatCodeName(0xFFF0)=%q, want numeric fallback", name)
	}
	if desc := DescribeCode(CodeBTNSide); desc != "KeyCode: 275, Key: BTN_SIDE" {
		t.Fatalf("DescribeCode(275)=%q", desc)
	}
	if desc := DescribeCode(0xFFF0); desc != "KeyCode: 65520" {
		t.Fatalf("DescribeCode(0xFFF0)=%q", desc)
	}
}

func TestReservedCodes(t *testing.T) {
	for _, raw := range []string{"KEY_LEFTCTRL", "KEY_C"} {
		code, err := ParseCode(raw)
		if err != nil {
			t.Fatalf("ParseCode(%q) returned error: %v", raw, err)
		}
		if !IsReservedCode(code) {
			t.Fatalf("%s should be reserved", raw)
		}
	}
	if IsReservedCode(CodeBTNSide) {
		t.Fatalf("BTN_SIDE should not be reserved")
	}
}

func TestKeyNameRejectsUnknown(t *testing.T) {
	if name, ok := keyName(0xFFF0); ok {
		t.Fatalf("keyName(0xFFF0) = %q, want no name", name)
	}
	if name, ok := keyName(CodeBTNLeft); !ok || name == "" {
		t.Fatalf("keyName(BTN_LEFT) = %q, %v", name, ok)
	}
}
