package notify

import (
	"fmt"
	"time"

	"github.com/hamed0406/watchdog/internal/domain"
)

type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// Embed is a rich status card. Colour is a 24-bit RGB integer.
type Embed struct {
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	Color       int          `json:"color"`
	Fields      []EmbedField `json:"fields,omitempty"`
}

const unknownNote = "Some kind of error occured. Notify maintainers!"

func rgb(r, g, b int) int { return r<<16 | g<<8 | b }

var (
	ColorUp      = rgb(21, 250, 59)
	ColorDown    = rgb(220, 23, 30)
	ColorUnknown = rgb(215, 187, 10)
)

// BuildEmbed renders the status card for the given confirmed status.
func BuildEmbed(status domain.ResourceStatus, since time.Time, resource, addr string) Embed {
	e := Embed{}
	switch status {
	case domain.StatusUp:
		e.Title = resource + " is online!"
		e.Color = ColorUp
	case domain.StatusDown:
		e.Title = resource + " is offline!"
		e.Color = ColorDown
	default:
		e.Title = resource + " status is unknown..."
		e.Color = ColorUnknown
		e.Description = unknownNote
	}

	sinceText := "unknown"
	if !since.IsZero() {
		sinceText = fmt.Sprintf("<t:%d:R>", since.Unix())
	}
	e.Fields = []EmbedField{
		{Name: "Since", Value: sinceText},
		{Name: "Address", Value: addr},
	}
	return e
}
