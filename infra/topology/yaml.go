// Package topology reads networks and timetables from YAML files.
package topology

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/trackdispatch/core/factory"
	"github.com/kilianp07/trackdispatch/core/model"
	coretopo "github.com/kilianp07/trackdispatch/core/topology"
)

func init() {
	_ = coretopo.RegisterProvider("yaml", func(conf map[string]any) (coretopo.Provider, error) {
		var c struct {
			Path string `json:"path"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if c.Path == "" {
			return nil, fmt.Errorf("yaml topology: path is required")
		}
		return LoadFile(c.Path)
	})
}

type document struct {
	ServiceDay string        `yaml:"service_day"`
	Timezone   string        `yaml:"timezone"`
	Places     []placeDoc    `yaml:"places"`
	Stretches  []stretchDoc  `yaml:"stretches"`
	Dispatch   []dispatchDoc `yaml:"dispatch"`
	Trains     []trainDoc    `yaml:"trains"`
}

type placeDoc struct {
	ID         int64  `yaml:"id"`
	Kind       string `yaml:"kind"`
	Name       string `yaml:"name"`
	Code       string `yaml:"code"`
	Tracks     int    `yaml:"tracks"`
	Controller int64  `yaml:"controller"`
}

type trackDoc struct {
	ID          int64  `yaml:"id"`
	Name        string `yaml:"name"`
	Mode        string `yaml:"mode"`
	Designation string `yaml:"designation"`
}

type stretchDoc struct {
	ID     int64      `yaml:"id"`
	From   int64      `yaml:"from"`
	To     int64      `yaml:"to"`
	Tracks []trackDoc `yaml:"tracks"`
}

type dispatchDoc struct {
	ID        int64   `yaml:"id"`
	From      int64   `yaml:"from"`
	To        int64   `yaml:"to"`
	Stretches []int64 `yaml:"stretches"`
	Signals   []int64 `yaml:"signals"`
}

type callDoc struct {
	ID        int64  `yaml:"id"`
	Station   int64  `yaml:"station"`
	Arrival   string `yaml:"arrival"`
	Departure string `yaml:"departure"`
	Track     string `yaml:"track"`
}

type trainDoc struct {
	ID       int64     `yaml:"id"`
	Operator string    `yaml:"operator"`
	Number   string    `yaml:"number"`
	Calls    []callDoc `yaml:"calls"`
}

// LoadFile parses the YAML network at path.
func LoadFile(path string) (*coretopo.StaticProvider, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open topology: %w", err)
	}
	defer f.Close()
	p, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Parse decodes a YAML network. Call times are "HH:MM", "HH:MM:SS" on the
// service day or full RFC 3339 timestamps. Calls without an id get one after
// the largest explicit call id.
func Parse(r io.Reader) (*coretopo.StaticProvider, error) {
	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode topology: %w", err)
	}
	day, err := doc.day()
	if err != nil {
		return nil, err
	}

	p := &coretopo.StaticProvider{}
	for _, pd := range doc.Places {
		kind, err := model.ParsePlaceKind(pd.Kind)
		if err != nil {
			return nil, fmt.Errorf("place %d: %w", pd.ID, err)
		}
		name := pd.Name
		if name == "" {
			name = pd.Code
		}
		p.PlaceList = append(p.PlaceList, model.Place{
			ID: pd.ID, Kind: kind, Name: name, ShortCode: pd.Code, Tracks: pd.Tracks,
			ControllerStationID: pd.Controller,
		})
	}
	for _, sd := range doc.Stretches {
		s := model.TrackStretch{ID: sd.ID, FromID: sd.From, ToID: sd.To}
		for _, td := range sd.Tracks {
			mode, err := model.ParseDirectionMode(td.Mode)
			if err != nil {
				return nil, fmt.Errorf("track %d: %w", td.ID, err)
			}
			s.Tracks = append(s.Tracks, model.Track{ID: td.ID, StretchID: sd.ID, Name: td.Name, Mode: mode, Designation: td.Designation})
		}
		p.StretchList = append(p.StretchList, s)
	}
	for _, dd := range doc.Dispatch {
		p.DispatchList = append(p.DispatchList, model.DispatchStretch{
			ID: dd.ID, FromID: dd.From, ToID: dd.To, StretchIDs: dd.Stretches, SignalIDs: dd.Signals,
		})
	}

	next := int64(0)
	for _, td := range doc.Trains {
		for _, cd := range td.Calls {
			if cd.ID > next {
				next = cd.ID
			}
		}
	}
	for _, td := range doc.Trains {
		p.TrainList = append(p.TrainList, model.Train{ID: td.ID, Operator: td.Operator, Number: td.Number})
		for i, cd := range td.Calls {
			id := cd.ID
			if id == 0 {
				next++
				id = next
			}
			call := model.TrainStationCall{ID: id, TrainID: td.ID, StationID: cd.Station, Sequence: i + 1, PlannedTrack: cd.Track}
			if call.ScheduledArrival, err = parseTime(day, cd.Arrival); err != nil {
				return nil, fmt.Errorf("train %d call %d arrival: %w", td.ID, i+1, err)
			}
			if call.ScheduledDeparture, err = parseTime(day, cd.Departure); err != nil {
				return nil, fmt.Errorf("train %d call %d departure: %w", td.ID, i+1, err)
			}
			p.CallList = append(p.CallList, call)
		}
	}
	return p, nil
}

func (d document) day() (time.Time, error) {
	loc := time.UTC
	if d.Timezone != "" {
		l, err := time.LoadLocation(d.Timezone)
		if err != nil {
			return time.Time{}, fmt.Errorf("timezone: %w", err)
		}
		loc = l
	}
	if d.ServiceDay == "" {
		now := time.Now().In(loc)
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc), nil
	}
	day, err := time.ParseInLocation("2006-01-02", d.ServiceDay, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("service_day: %w", err)
	}
	return day, nil
}

func parseTime(day time.Time, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	for _, layout := range []string{"15:04:05", "15:04"} {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		return day.Add(time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute +
			time.Duration(t.Second())*time.Second), nil
	}
	return time.Time{}, fmt.Errorf("invalid time %q", s)
}
