package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeliveryLinkValidator_AllowedHost(t *testing.T) {
	v := NewDeliveryLinkValidator([]string{"drive.google.com", "Dropbox.com "})

	link, err := v.Validate("https://drive.google.com/file/d/abc123/view")
	assert.NoError(t, err)
	assert.Equal(t, "https://drive.google.com/file/d/abc123/view", link)

	// Домены из конфигурации нормализуются.
	_, err = v.Validate("https://dropbox.com/s/xyz")
	assert.NoError(t, err)
}

func TestDeliveryLinkValidator_TrimsWhitespace(t *testing.T) {
	v := NewDeliveryLinkValidator([]string{"drive.google.com"})

	link, err := v.Validate("  https://drive.google.com/file/d/abc  ")
	assert.NoError(t, err)
	assert.Equal(t, "https://drive.google.com/file/d/abc", link)
}

func TestDeliveryLinkValidator_RejectsHTTP(t *testing.T) {
	v := NewDeliveryLinkValidator([]string{"drive.google.com"})

	_, err := v.Validate("http://drive.google.com/file/d/abc")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "https")
}

func TestDeliveryLinkValidator_RejectsUnknownHost(t *testing.T) {
	v := NewDeliveryLinkValidator([]string{"drive.google.com"})

	_, err := v.Validate("https://evil.example.com/payload")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "evil.example.com")
}

func TestDeliveryLinkValidator_RejectsSubdomainSpoof(t *testing.T) {
	v := NewDeliveryLinkValidator([]string{"drive.google.com"})

	_, err := v.Validate("https://drive.google.com.evil.example.com/file")
	assert.Error(t, err)
}

func TestDeliveryLinkValidator_RejectsEmptyAndOversized(t *testing.T) {
	v := NewDeliveryLinkValidator([]string{"drive.google.com"})

	_, err := v.Validate("   ")
	assert.Error(t, err)

	long := "https://drive.google.com/" + strings.Repeat("a", MaxDeliveryLinkLength)
	_, err = v.Validate(long)
	assert.Error(t, err)
}
