package validation

import (
	"strings"
	"testing"

	"threadline/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestValidateThreadText(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		text    string
		wantErr bool
	}{
		{"Valid", "hello gophers", false},
		{"Empty", "", true},
		{"Whitespace Only", "   \n\t", true},
		{"Exactly Max", strings.Repeat("a", models.MaxThreadLength), false},
		{"Over Max", strings.Repeat("a", models.MaxThreadLength+1), true},
		{"Max Multibyte Runes", strings.Repeat("é", models.MaxThreadLength), false},
		{"Surrounding Space Not Counted", "  " + strings.Repeat("a", models.MaxThreadLength) + "  ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateThreadText(tt.text)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateHandle(t *testing.T) {
	t.Parallel()
	tests := []struct {
		handle string
		ok     bool
	}{
		{"ada_lovelace", true},
		{"abc", true},
		{"ab", false},
		{strings.Repeat("a", 31), false},
		{"Ada", false},
		{"ada-l", false},
		{"admin", false},
		{"me", false},
	}

	for _, tc := range tests {
		t.Run(tc.handle, func(t *testing.T) {
			err := ValidateHandle(tc.handle)
			assert.Equal(t, tc.ok, err == nil, "handle %q", tc.handle)
		})
	}
}

type commentPayload struct {
	Text     string `validate:"threadtext"`
	MediaURL string `validate:"omitempty,url"`
	Username string `validate:"omitempty,handle"`
}

func TestStruct_ReturnsValidationAppError(t *testing.T) {
	t.Parallel()

	assert.NoError(t, Struct(commentPayload{Text: "ok", MediaURL: "https://cdn.test/a.png"}))

	err := Struct(commentPayload{Text: ""})
	assert.Equal(t, models.CodeValidation, models.ErrorCode(err))
	assert.Contains(t, err.Error(), "Text must not be empty")

	err = Struct(commentPayload{Text: "ok", MediaURL: "not a url"})
	assert.Contains(t, err.Error(), "MediaURL must be a valid URL")

	err = Struct(commentPayload{Text: "ok", Username: "NO"})
	assert.Contains(t, err.Error(), "Username must be 3-30")
}
