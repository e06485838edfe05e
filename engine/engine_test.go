package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckNavigable(t *testing.T) {
	tests := []struct {
		url string
		ok  bool
	}{
		{"https://www.example.com/news/1", true},
		{"http://www.example.com", true},
		{"mailto:desk@example.com", false},
		{"javascript:void(0)", false},
		{"tel:+441234567", false},
		{"/relative/path", false},
		{"https:///no-host", false},
		{"%zz", false},
	}

	for _, tt := range tests {
		err := CheckNavigable(tt.url)
		if tt.ok {
			assert.NoError(t, err, tt.url)
		} else {
			assert.ErrorIs(t, err, ErrNotNavigable, tt.url)
		}
	}
}
