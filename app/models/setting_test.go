package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppSettingsValidate(t *testing.T) {
	valid := AppSettings{
		ExtractionInstructions: "extract line items from the enquiry",
		QuoteNumberPrefix:      "QF-",
		QuoteNumberStart:       1000,
	}
	assert.NoError(t, valid.Validate())

	// Blank instructions are valid settings; generation enforces non-blank.
	blank := valid
	blank.ExtractionInstructions = ""
	assert.NoError(t, blank.Validate())

	noPrefix := valid
	noPrefix.QuoteNumberPrefix = ""
	assert.Error(t, noPrefix.Validate())

	negativeStart := valid
	negativeStart.QuoteNumberStart = -1
	assert.Error(t, negativeStart.Validate())
}

func TestGetAppSettingsDefaults(t *testing.T) {
	s := GetAppSettings()
	assert.Equal(t, "QF-", s.QuoteNumberPrefix)
	assert.Equal(t, int64(1000), s.QuoteNumberStart)
}
