package normalizers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "formatted north american", input: "(514) 555-0142", expected: "5145550142"},
		{name: "international prefix", input: "+1 514 555 0142", expected: "15145550142"},
		{name: "dots and spaces", input: "514.555.0142", expected: "5145550142"},
		{name: "no digits", input: "call us", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizePhone(tt.input))
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "host@example.com", NormalizeEmail("  Host@Example.COM "))
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "strips english noise", input: "The Mountain Retreat Center", expected: "mountain"},
		{name: "strips french noise", input: "Le Centre de Yoga du Nord", expected: "nord"},
		{name: "collapses whitespace", input: "  Casa   Verde  ", expected: "casa verde"},
		{name: "stop words only", input: "The Retreat Centre", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeName(tt.input))
		})
	}
}

func TestRootDomain(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "full url", input: "https://www.example.com/venue/1", expected: "example.com"},
		{name: "no scheme", input: "example.com/venue/1", expected: "example.com"},
		{name: "mixed case host", input: "https://Example.COM", expected: "example.com"},
		{name: "subdomain preserved", input: "https://booking.example.com", expected: "booking.example.com"},
		{name: "empty", input: "  ", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, RootDomain(tt.input))
		})
	}
}
