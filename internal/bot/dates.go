package bot

import (
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// DateParser turns free-text date expressions ("in 3 days", "tomorrow",
// "next friday") into timestamps.
type DateParser struct {
	parser *when.Parser
}

// NewDateParser creates a DateParser with English and common rules loaded.
func NewDateParser() *DateParser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return &DateParser{parser: w}
}

// Parse extracts a timestamp from text relative to base. It returns false
// when the text contains no recognizable date expression.
func (p *DateParser) Parse(text string, base time.Time) (time.Time, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, false
	}

	result, err := p.parser.Parse(text, base)
	if err != nil || result == nil {
		return time.Time{}, false
	}

	return result.Time, true
}
