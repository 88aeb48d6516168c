package dataflows

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestAPIErrorTruncatesOnRuneBoundary(t *testing.T) {
	body := strings.Repeat("a", 255) + strings.Repeat("é", 10)
	err := &APIError{Operation: "get_company_overview", URL: "http://sectors/v1/company/report/BBCA/", StatusCode: 502, Body: body}

	msg := err.Error()
	assert.True(t, utf8.ValidString(msg))
	assert.True(t, strings.HasSuffix(msg, strings.Repeat("a", 255)+"..."))

	assert.Equal(t, "short", truncate("short", 256))
	assert.Equal(t, "日...", truncate("日本語", 4))
}

func TestInvalidDateNamesAcceptedLayouts(t *testing.T) {
	_, err := NormalizeDate("June 1st")
	for _, layout := range []string{"YYYY-MM-DD", "YYYY-M-D", "DD/MM/YYYY", "RFC3339", "YYYY-MM-DD HH:MM:SS"} {
		assert.Contains(t, err.Error(), layout)
	}
}
