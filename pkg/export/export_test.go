package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"testing"
	"time"

	"github.com/kilianp07/trackdispatch/core/dispatch"
	"github.com/kilianp07/trackdispatch/core/model"
)

func sections() []dispatch.SectionView {
	dep := time.Date(2024, 5, 1, 8, 1, 0, 0, time.UTC)
	return []dispatch.SectionView{{
		ID: 7, Train: "X100", From: "G", To: "A", State: "departed", BlockIndex: 1, Blocks: 2, TrainState: "running",
		Departure: model.TrainStationCall{ScheduledDeparture: dep, ActualDeparture: dep.Add(3 * time.Minute)},
		Arrival:   model.TrainStationCall{ScheduledArrival: dep.Add(19 * time.Minute)},
	}}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sections()); err != nil {
		t.Fatalf("write: %v", err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected header and one row, got %d", len(rows))
	}
	row := rows[1]
	if row[0] != "7" || row[5] != "2024-05-01T08:04:00Z" || row[7] != "" || row[9] != "1" {
		t.Fatalf("unexpected row %v", row)
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, sections()); err != nil {
		t.Fatalf("write: %v", err)
	}
	var out []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(out) != 1 || out[0]["train"] != "X100" {
		t.Fatalf("unexpected output %v", out)
	}
}
