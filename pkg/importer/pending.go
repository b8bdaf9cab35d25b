package importer

import "github.com/shishobooks/librarr/pkg/events"

type Publisher interface {
	Publish(event events.Event)
}

// pendingEvents holds events that reference book files whose rows don't exist
// yet. They are built only when flushed, after the bulk insert has assigned
// ids.
type pendingEvents struct {
	builders []func() events.Event
}

func (p *pendingEvents) add(build func() events.Event) {
	p.builders = append(p.builders, build)
}

func (p *pendingEvents) flush(pub Publisher) int {
	for _, build := range p.builders {
		pub.Publish(build())
	}
	n := len(p.builders)
	p.builders = nil
	return n
}
