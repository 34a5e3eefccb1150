// Package export writes section listings for offline consumption.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"time"

	"github.com/kilianp07/trackdispatch/core/dispatch"
)

// WriteJSON writes the sections to w as one JSON array.
func WriteJSON(w io.Writer, sections []dispatch.SectionView) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(sections)
}

var csvHeader = []string{
	"section_id", "train", "from", "to", "scheduled_departure", "actual_departure",
	"scheduled_arrival", "actual_arrival", "state", "block", "blocks", "train_state",
}

// WriteCSV writes one row per section. Unset times are empty cells.
func WriteCSV(w io.Writer, sections []dispatch.SectionView) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, s := range sections {
		rec := []string{
			strconv.FormatInt(s.ID, 10),
			s.Train,
			s.From,
			s.To,
			stamp(s.Departure.ScheduledDeparture),
			stamp(s.Departure.ActualDeparture),
			stamp(s.Arrival.ScheduledArrival),
			stamp(s.Arrival.ActualArrival),
			s.State,
			strconv.Itoa(s.BlockIndex),
			strconv.Itoa(s.Blocks),
			s.TrainState,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func stamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
