package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLabelsForCommit(t *testing.T) {
	tests := []struct {
		name       string
		message    string
		wantLabels []string
		wantOK     bool
	}{
		{
			name:       "known prefix",
			message:    "bgpd: fix peer flap on reconnect",
			wantLabels: []string{"bgp"},
			wantOK:     true,
		},
		{
			name:       "multiple prefixes",
			message:    "doc, tests: update coverage notes",
			wantLabels: []string{"documentation", "tests"},
			wantOK:     true,
		},
		{
			name:       "unknown prefix still counts as formatted",
			message:    "frobnicator: add knob",
			wantLabels: nil,
			wantOK:     true,
		},
		{
			name:       "build file prefix",
			message:    "configure.ac: bump minimum autoconf",
			wantLabels: []string{"build"},
			wantOK:     true,
		},
		{
			name:    "no prefix",
			message: "fixed a thing",
			wantOK:  false,
		},
		{
			name:    "colon only after newline",
			message: "fixed a thing\nbgpd: detail",
			wantOK:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			labels, ok := labelsForCommit(tt.message)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantLabels, labels)
		})
	}
}
