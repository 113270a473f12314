package collection

import (
	"encoding/json/jsontext"
	"encoding/json/v2"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/gameshelf/gameshelf-server/internal/domain"
)

// ErrCorruptSnapshot reports a stored value that is not a JSON array.
var ErrCorruptSnapshot = errors.New("collection: snapshot is not a JSON array")

// encodeSnapshot serializes the full collection.
func encodeSnapshot(entries []domain.Entry) ([]byte, error) {
	if entries == nil {
		entries = []domain.Entry{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

// repairReport counts what decodeSnapshot had to fix.
type repairReport struct {
	Undecodable int // elements that are not an entry object
	BadID       int // id missing or not positive
	Duplicate   int // later occurrences of an id already seen
	Coerced     int // entries whose status, playtime or addedAt had to be fixed
}

func (r repairReport) Dropped() int {
	return r.Undecodable + r.BadID + r.Duplicate
}

func (r repairReport) Any() bool {
	return r.Dropped() > 0 || r.Coerced > 0
}

// snapshotEntry reads the fields a hand-edited snapshot most often gets
// wrong without failing the whole element.
type snapshotEntry struct {
	domain.Entry
	AddedAt  jsontext.Value `json:"addedAt"`
	Playtime jsontext.Value `json:"playtime"`
}

// addedAtLayouts are tried in order; only the first is what encodeSnapshot writes.
var addedAtLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// parseAddedAt reports whether v holds a usable timestamp and whether it was
// already in the layout encodeSnapshot writes.
func parseAddedAt(v jsontext.Value) (addedAt time.Time, exact, ok bool) {
	var s string
	if len(v) == 0 || json.Unmarshal(v, &s) != nil {
		return time.Time{}, false, false
	}
	for i, layout := range addedAtLayouts {
		if t, err := time.Parse(layout, s); err == nil && !t.IsZero() {
			return t.UTC(), i == 0, true
		}
	}
	return time.Time{}, false, false
}

// parsePlaytime truncates any JSON number to whole hours. Anything else,
// including a negative or absurdly large number, reads as 0.
func parsePlaytime(v jsontext.Value) (hours int, exact bool) {
	var f float64
	if len(v) == 0 || json.Unmarshal(v, &f) != nil {
		return 0, false
	}
	if f < 0 || f > math.MaxInt32 {
		return 0, false
	}
	hours = int(math.Trunc(f))
	return hours, float64(hours) == f
}

// decodeSnapshot parses a stored snapshot.
//
// Only a value that is not a JSON array fails. Damaged elements inside the
// array are dropped or repaired so the result always satisfies the collection
// invariants. An entry with a missing or unreadable addedAt gets now.
func decodeSnapshot(data []byte, now time.Time) ([]domain.Entry, repairReport, error) {
	var report repairReport

	var raw []jsontext.Value
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, report, fmt.Errorf("%w: %w", ErrCorruptSnapshot, err)
	}

	entries := make([]domain.Entry, 0, len(raw))
	seen := make(map[int]struct{}, len(raw))

	for _, v := range raw {
		var se snapshotEntry
		if err := json.Unmarshal(v, &se); err != nil {
			report.Undecodable++
			continue
		}
		e := se.Entry
		if e.ID <= 0 {
			report.BadID++
			continue
		}
		if _, dup := seen[e.ID]; dup {
			report.Duplicate++
			continue
		}

		coerced := e.Repair()
		var exact, ok bool
		if e.AddedAt, exact, ok = parseAddedAt(se.AddedAt); !ok {
			e.AddedAt = now
		}
		coerced = coerced || !exact
		e.Playtime, exact = parsePlaytime(se.Playtime)
		coerced = coerced || !exact
		if coerced {
			report.Coerced++
		}

		seen[e.ID] = struct{}{}
		entries = append(entries, e)
	}

	return entries, report, nil
}
