package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecord_String(t *testing.T) {
	tests := []struct {
		name string
		rec  Record
		want string
	}{
		{"sentinel", Sentinel(), "{'builder_type': 'BUILDER NOT FOUND'}"},
		{"desk builder", Record{"Desk Builder": "Standing"}, "{'Desk Builder': 'Standing'}"},
		{"single quote in value", Record{"builder_type": "Kid's Desk"}, `{'builder_type': "Kid's Desk"}`},
		{"both quotes in value", Record{"builder_type": `Kid's "Desk"`}, `{'builder_type': 'Kid\'s "Desk"'}`},
		{"newline in value", Record{"builder_type": "a\nb"}, `{'builder_type': 'a\nb'}`},
		{"empty", Record{}, "{}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rec.String())
		})
	}
}

func TestRecord_IsSentinel(t *testing.T) {
	assert.True(t, Sentinel().IsSentinel())
	assert.False(t, Record{"builder_type": "Corner"}.IsSentinel(), "real record")
	assert.False(t, Record{"Desk Builder": SentinelValue}.IsSentinel(), "sentinel value under another key")
}
