package engine

import (
	"github.com/jthickma/webapp/internal/core/errs"
)

// Dispatcher maps URLs to tools through an ordered family table. The first
// matching family wins.
type Dispatcher struct {
	families []Family
}

func NewDispatcher(families ...Family) *Dispatcher {
	return &Dispatcher{families: families}
}

// Resolve validates rawURL and picks the family that handles its host.
func (d *Dispatcher) Resolve(rawURL string) (Invocation, error) {
	host, err := ValidateURL(rawURL)
	if err != nil {
		return Invocation{}, err
	}
	for _, f := range d.families {
		if f.Matches(host) {
			return Invocation{
				Family: f.Name,
				Tool:   f.Tool,
				URL:    rawURL,
				Host:   host,
			}, nil
		}
	}
	return Invocation{}, errs.New(errs.KindUnsupportedDomain, "No suitable downloader found for this URL")
}

func (d *Dispatcher) Families() []Family {
	out := make([]Family, len(d.families))
	copy(out, d.families)
	return out
}

// Tools returns each distinct tool once, in table order.
func (d *Dispatcher) Tools() []Tool {
	seen := make(map[string]bool)
	var tools []Tool
	for _, f := range d.families {
		if seen[f.Tool.Name()] {
			continue
		}
		seen[f.Tool.Name()] = true
		tools = append(tools, f.Tool)
	}
	return tools
}
