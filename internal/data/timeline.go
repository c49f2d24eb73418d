package data

import (
	"fmt"
	"os"
	"time"

	"github.com/tidewater/engine/internal/core/event"
	"gopkg.in/yaml.v3"
)

// TimelineEntry is one event the host publishes at boot, immediately or
// after a virtual-time delay.
type TimelineEntry struct {
	Type    event.Type
	Delay   time.Duration
	Payload map[string]any
}

// Timeline is a yaml-declared list of boot events:
//
//	events:
//	  - type: world.warmup
//	    payload: {phase: start}
//	  - type: wave.begin
//	    delay: 5s
//	    payload: {wave: 1}
type Timeline struct {
	entries []TimelineEntry
}

type rawTimeline struct {
	Events []rawEntry `yaml:"events"`
}

type rawEntry struct {
	Type    string         `yaml:"type"`
	Delay   string         `yaml:"delay"`
	Payload map[string]any `yaml:"payload"`
}

// LoadTimeline reads and validates a timeline file. Entries must name a type;
// delays are Go duration strings and may not be negative.
func LoadTimeline(path string) (*Timeline, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read timeline %s: %w", path, err)
	}
	var doc rawTimeline
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse timeline %s: %w", path, err)
	}

	tl := &Timeline{entries: make([]TimelineEntry, 0, len(doc.Events))}
	for i, e := range doc.Events {
		if e.Type == "" {
			return nil, fmt.Errorf("timeline %s: event %d has no type", path, i)
		}
		var delay time.Duration
		if e.Delay != "" {
			delay, err = time.ParseDuration(e.Delay)
			if err != nil {
				return nil, fmt.Errorf("timeline %s: event %d delay: %w", path, i, err)
			}
			if delay < 0 {
				return nil, fmt.Errorf("timeline %s: event %d has negative delay %s", path, i, delay)
			}
		}
		tl.entries = append(tl.entries, TimelineEntry{
			Type:    event.Type(e.Type),
			Delay:   delay,
			Payload: e.Payload,
		})
	}
	return tl, nil
}

func (t *Timeline) Count() int { return len(t.entries) }

// Entries returns the parsed entries in file order.
func (t *Timeline) Entries() []TimelineEntry { return t.entries }

// Schedule publishes every entry on the queue: zero-delay entries dispatch
// immediately, the rest join the delayed queue in file order.
func (t *Timeline) Schedule(q *event.Queue) {
	for _, e := range t.entries {
		if e.Delay > 0 {
			q.PublishDelayed(e.Type, e.Payload, e.Delay)
			continue
		}
		q.Publish(e.Type, e.Payload)
	}
}
