package fingerprint

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Ramsey-B/bramble/pkg/models"
)

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

func intPtr(i int) *int { return &i }

func TestGenerate_ExternalID(t *testing.T) {
	l := &models.Listing{
		Source:      "gite-quebec",
		ExternalID:  strPtr(" 9981 "),
		Description: strings.Repeat("a very long description ", 10),
	}

	// An external ID beats any content hash
	assert.Equal(t, "gite-quebec:9981", Generate(l))

	other := &models.Listing{Source: "kijiji", ExternalID: strPtr("9981")}
	assert.NotEqual(t, Generate(l), Generate(other))
}

func TestGenerate_DescriptionHash(t *testing.T) {
	a := &models.Listing{Description: "A beautiful lakeside chalet with three bedrooms and a sauna."}
	b := &models.Listing{Description: "a Beautiful Lakeside CHALET with three bedrooms and a sauna.  "}

	// Case and surrounding whitespace do not change the fingerprint
	assert.Equal(t, Generate(a), Generate(b))

	c := &models.Listing{Description: "A different cabin in the woods, far from any lake or road."}
	assert.NotEqual(t, Generate(a), Generate(c))
}

func TestGenerate_DescriptionPrefixOnly(t *testing.T) {
	head := strings.Repeat("x", DefaultPrefixChars)
	a := &models.Listing{Description: head + " tail one"}
	b := &models.Listing{Description: head + " a completely different tail"}

	// Only the head of the description participates
	assert.Equal(t, Generate(a), Generate(b))
}

func TestGenerate_CompositeFallback(t *testing.T) {
	a := &models.Listing{
		Description: "too short",
		Location:    strPtr("Sutton, QC"),
		Price:       floatPtr(1200),
		Bedrooms:    intPtr(3),
		SurfaceM2:   floatPtr(90),
	}
	b := &models.Listing{
		Description: "tiny",
		Location:    strPtr("sutton, qc"),
		Price:       floatPtr(1200),
		Bedrooms:    intPtr(3),
		SurfaceM2:   floatPtr(90),
	}

	assert.Equal(t, Generate(a), Generate(b))

	b.Bedrooms = intPtr(4)
	assert.NotEqual(t, Generate(a), Generate(b))
}

func TestHasChanged(t *testing.T) {
	assert.False(t, HasChanged("abc", "abc"))
	assert.True(t, HasChanged("abc", "abd"))
}
