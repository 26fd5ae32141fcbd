package telegram

import (
	"strings"
	"testing"
)

func TestSplitMessageRespectsLimit(t *testing.T) {
	var builder strings.Builder
	builder.WriteString(strings.Repeat("a", 3000))
	builder.WriteString("\n\n")
	builder.WriteString(strings.Repeat("b", 2000))
	builder.WriteString("\n")
	builder.WriteString(strings.Repeat("c", 500))

	parts := SplitMessage(builder.String(), 0)
	if len(parts) != 2 {
		t.Fatalf("expected 2 parts, got %d", len(parts))
	}

	for i, part := range parts {
		if length := len([]rune(part)); length > MessageLimit {
			t.Fatalf("part %d exceeds limit: %d", i, length)
		}
	}

	if parts[0] != strings.Repeat("a", 3000) {
		t.Fatalf("unexpected content in first part")
	}
	if !strings.HasSuffix(parts[1], strings.Repeat("c", 500)) {
		t.Fatalf("second part should contain trailing block of 'c'")
	}
}

func TestSplitMessageCustomLimit(t *testing.T) {
	report := "Números no registrados en WhatsApp:\n+573001234567 - Luis\n+59899123456 - Pablo"
	parts := SplitMessage(report, 45)
	if len(parts) != 2 {
		t.Fatalf("expected 2 parts, got %d: %q", len(parts), parts)
	}
	if parts[0] != "Números no registrados en WhatsApp:" {
		t.Fatalf("unexpected first part %q", parts[0])
	}
	for i, part := range parts {
		if length := len([]rune(part)); length > 45 {
			t.Fatalf("part %d exceeds limit: %d", i, length)
		}
	}
}

func TestSplitMessageShortText(t *testing.T) {
	text := "Bot online y listo para funcionar."
	parts := SplitMessage(text, 0)
	if len(parts) != 1 || parts[0] != text {
		t.Fatalf("unexpected parts: %q", parts)
	}
}

func TestSplitMessageEmpty(t *testing.T) {
	if parts := SplitMessage("   \n  ", 0); len(parts) != 0 {
		t.Fatalf("expected no parts for empty input, got %d", len(parts))
	}
}
