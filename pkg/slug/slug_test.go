package slug

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMake(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple title", "Senior Associate", "senior-associate"},
		{"uppercase", "IP Litigation", "ip-litigation"},
		{"punctuation collapses", "Smith & Jones, LLP", "smith-jones-llp"},
		{"accents stripped", "Búfete López", "bufete-lopez"},
		{"german umlaut", "Bürolandschaft", "burolandschaft"},
		{"numbers kept", "Top 100 Firm", "top-100-firm"},
		{"leading symbols", "!!Urgent Hire", "urgent-hire"},
		{"trailing symbols", "Apply Now!!!", "apply-now"},
		{"repeated separators", "Tax  --  Law", "tax-law"},
		{"empty string", "", ""},
		{"only symbols", "&&&", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Make(tt.input))
		})
	}
}

func TestWithSuffix(t *testing.T) {
	assert.Equal(t, "acme", WithSuffix("acme", 0))
	assert.Equal(t, "acme", WithSuffix("acme", 1))
	assert.Equal(t, "acme-2", WithSuffix("acme", 2))
	assert.Equal(t, "acme-13", WithSuffix("acme", 13))
}
