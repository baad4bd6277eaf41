package contracts

import (
	"fmt"
	"strings"
)

// Instrument is one tradable ETF in the selectable universe
type Instrument struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Label renders "Code | Name", the form used by selection lists
func (i Instrument) Label() string {
	return fmt.Sprintf("%s | %s", i.Code, i.Name)
}

// ParseTicker extracts the code from either "Code" or "Code | Name"
func ParseTicker(text string) string {
	if idx := strings.Index(text, "|"); idx >= 0 {
		return strings.TrimSpace(text[:idx])
	}
	return strings.TrimSpace(text)
}
