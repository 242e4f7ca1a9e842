package domain

import "time"

type CommandType string

const (
	CommandStart CommandType = "start"
	CommandMove  CommandType = "move"
	CommandEnd   CommandType = "end"
	CommandClear CommandType = "clear"
)

// DrawCommand is one persisted unit of drawing history. Coordinates and style
// fields are meaningful only for the variants that carry them: start uses all
// four, move uses x/y, end and clear carry none. Timestamp is assigned by the
// server on receipt.
type DrawCommand struct {
	Type      CommandType `json:"type"`
	X         float64     `json:"x,omitempty"`
	Y         float64     `json:"y,omitempty"`
	Color     string      `json:"color,omitempty"`
	LineWidth float64     `json:"lineWidth,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

func (c DrawCommand) IsClear() bool { return c.Type == CommandClear }
