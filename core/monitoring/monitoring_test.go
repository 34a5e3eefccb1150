package monitoring

import (
	"testing"

	apperrors "github.com/kilianp07/trackdispatch/core/errors"
)

func TestTags(t *testing.T) {
	err := apperrors.New(apperrors.KindPersistenceFailure, "save failed").With("snapshot", "abc")
	tags := Tags(err, map[string]string{"component": "persister"})
	if tags["kind"] != string(apperrors.KindPersistenceFailure) {
		t.Fatalf("unexpected kind tag %q", tags["kind"])
	}
	if tags["snapshot"] != "abc" || tags["component"] != "persister" {
		t.Fatalf("unexpected tags %v", tags)
	}
}

func TestInitIgnoresNil(t *testing.T) {
	Init(nil)
	if _, ok := Current().(NopMonitor); !ok {
		t.Fatalf("expected NopMonitor, got %T", Current())
	}
}
