package campaign

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSegmentValidate(t *testing.T) {
	tests := []struct {
		name    string
		segment Segment
		wantErr bool
	}{
		{"empty segment", Segment{}, false},
		{"all status", Segment{Status: SegmentAll}, false},
		{"checked status", Segment{Status: SegmentChecked}, false},
		{"not_checked status", Segment{Status: SegmentNotChecked}, false},
		{"unknown status", Segment{Status: "vip"}, true},
		{"age range", Segment{MinAge: 18, MaxAge: 35}, false},
		{"min only", Segment{MinAge: 21}, false},
		{"inverted age range", Segment{MinAge: 40, MaxAge: 30}, true},
		{"negative age", Segment{MinAge: -1}, true},
		{"full segment", Segment{Status: SegmentChecked, Interests: []string{"music"}, Locations: []string{"Berlin"}, MinAge: 18, MaxAge: 65}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.segment.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSegmentIsEmpty(t *testing.T) {
	assert.True(t, Segment{}.IsEmpty())
	assert.True(t, Segment{Status: SegmentAll}.IsEmpty())
	assert.False(t, Segment{Status: SegmentChecked}.IsEmpty())
	assert.False(t, Segment{Interests: []string{"music"}}.IsEmpty())
	assert.False(t, Segment{MinAge: 18}.IsEmpty())
}
