package parse

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"saber/internal/pkg/model"
)

// Record is one normalized job usage record. BilledHours is the normalized
// quantity: node-hours for CPU jobs, core-hours for GPU jobs, never negative.
type Record struct {
	JobID              string
	JobName            string
	UserName           string
	UserGroup          string
	Queue              string
	JobStatus          string
	Nodes              int
	Cores              int
	Memory             string
	RunTimeSeconds     int64
	ElapseLimitSeconds int64
	QueueTime          time.Time
	StartTime          time.Time
	EndTime            time.Time
	ResourceType       string
	BilledHours        float64
}

// MalformedRecordError describes one unparseable log line. Malformed lines
// are collected per file and skipped; they never abort the file.
type MalformedRecordError struct {
	Line   int
	Reason string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed record at line %d: %s", e.Line, e.Reason)
}

// Scheduler exit codes normalized to portable statuses.
var statusMap = map[string]string{
	"EXT": "COMPLETED",
	"CCL": "USER_CANCELED",
}

// Reader is a one-pass lazy reader over an accounting log: one line per
// record, whitespace-separated positional fields per the schema. Restart by
// constructing a new Reader over the source.
//
// Usage follows the bufio.Scanner shape:
//
//	r := parse.NewReader(f, schema)
//	for r.Next() {
//		rec := r.Record()
//		...
//	}
//	if err := r.Err(); err != nil { ... }   // I/O failure, file level
//	bad := r.Malformed()                    // skipped lines, record level
type Reader struct {
	sc        *bufio.Scanner
	schema    *Schema
	line      int
	rec       Record
	malformed []*MalformedRecordError
}

// NewReader returns a Reader over r using the given validated schema.
func NewReader(r io.Reader, schema *Schema) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &Reader{sc: sc, schema: schema}
}

// Next advances to the next well-formed record, accumulating malformed lines
// along the way. It returns false at end of input or on I/O error.
func (r *Reader) Next() bool {
	for r.sc.Scan() {
		r.line++
		text := strings.TrimSpace(r.sc.Text())
		if text == "" {
			continue
		}
		rec, merr := parseLine(text, r.line, r.schema)
		if merr != nil {
			r.malformed = append(r.malformed, merr)
			continue
		}
		r.rec = rec
		return true
	}
	return false
}

// Record returns the record produced by the last successful Next.
func (r *Reader) Record() Record { return r.rec }

// Err returns the first I/O error encountered, nil at clean end of input.
func (r *Reader) Err() error { return r.sc.Err() }

// Malformed returns the malformed lines collected so far.
func (r *Reader) Malformed() []*MalformedRecordError { return r.malformed }

func parseLine(text string, line int, s *Schema) (Record, *MalformedRecordError) {
	bad := func(format string, args ...any) (Record, *MalformedRecordError) {
		return Record{}, &MalformedRecordError{Line: line, Reason: fmt.Sprintf(format, args...)}
	}

	fields := strings.Fields(text)
	if len(fields) != s.Fields() {
		return bad("expected %d fields, got %d", s.Fields(), len(fields))
	}

	rec := Record{
		JobID:     fields[s.pos("JobID")],
		JobName:   fields[s.pos("JobName")],
		UserName:  fields[s.pos("UserName")],
		UserGroup: fields[s.pos("UserGroup")],
		Queue:     fields[s.pos("Queue")],
		JobStatus: fields[s.pos("JobStatus")],
		Memory:    fields[s.pos("Memory")],
	}
	if rec.UserName == "" || rec.UserGroup == "" {
		return bad("empty user or group identity")
	}
	if rec.Queue == "" {
		return bad("resource class undeterminable: empty queue")
	}
	if mapped, ok := statusMap[rec.JobStatus]; ok {
		rec.JobStatus = mapped
	}

	var err error
	if rec.Nodes, err = strconv.Atoi(fields[s.pos("Nodes")]); err != nil {
		return bad("bad node count %q", fields[s.pos("Nodes")])
	}
	if rec.Cores, err = strconv.Atoi(fields[s.pos("Cores")]); err != nil {
		return bad("bad core count %q", fields[s.pos("Cores")])
	}
	// Billed hours scale with the allocation, so a negative allocation would
	// bill negative hours.
	if rec.Nodes < 0 || rec.Cores < 0 {
		return bad("negative allocation: nodes=%d cores=%d", rec.Nodes, rec.Cores)
	}
	// Runtime fields are parenthesized in some scheduler versions, e.g. (3600).
	if rec.RunTimeSeconds, err = parseSeconds(fields[s.pos("RunTimeSeconds")]); err != nil {
		return bad("bad runtime %q", fields[s.pos("RunTimeSeconds")])
	}
	if rec.ElapseLimitSeconds, err = parseSeconds(fields[s.pos("ElapseLimiteSecond")]); err != nil {
		return bad("bad elapse limit %q", fields[s.pos("ElapseLimiteSecond")])
	}
	if rec.RunTimeSeconds <= 0 {
		return bad("non-positive elapsed time %d", rec.RunTimeSeconds)
	}

	if rec.QueueTime, err = parseTimestamp(fields, s, "Que"); err != nil {
		return bad("bad queue time: %v", err)
	}
	if rec.StartTime, err = parseTimestamp(fields, s, "Start"); err != nil {
		return bad("bad start time: %v", err)
	}
	rec.EndTime = rec.StartTime.Add(time.Duration(rec.RunTimeSeconds) * time.Second)

	// Unit normalization: CPU usage bills node-hours, GPU usage bills
	// core-hours. GPU queues are identified by name, per site convention.
	elapsedHours := float64(rec.RunTimeSeconds) / 3600.0
	if strings.Contains(strings.ToLower(rec.Queue), "gpu") {
		rec.ResourceType = model.ResourceGPU
		rec.BilledHours = float64(rec.Cores) * elapsedHours
	} else {
		rec.ResourceType = model.ResourceCPU
		rec.BilledHours = float64(rec.Nodes) * elapsedHours
	}

	return rec, nil
}

// parseSeconds parses an integer second count, tolerating surrounding
// parentheses.
func parseSeconds(s string) (int64, error) {
	s = strings.TrimSuffix(strings.TrimPrefix(s, "("), ")")
	return strconv.ParseInt(s, 10, 64)
}

var timeComponents = []string{"DateYear", "DateMonth", "DateDay", "DateHour", "DateMinute", "DateSecond"}

// parseTimestamp assembles a timestamp from the six positional component
// columns named <prefix>DateYear .. <prefix>DateSecond.
func parseTimestamp(fields []string, s *Schema, prefix string) (time.Time, error) {
	var v [6]int
	for i, comp := range timeComponents {
		name := prefix + comp
		n, err := strconv.Atoi(fields[s.pos(name)])
		if err != nil {
			return time.Time{}, fmt.Errorf("%s=%q", name, fields[s.pos(name)])
		}
		v[i] = n
	}
	t := time.Date(v[0], time.Month(v[1]), v[2], v[3], v[4], v[5], 0, time.UTC)
	// time.Date normalizes out-of-range components; reject instead.
	if t.Year() != v[0] || int(t.Month()) != v[1] || t.Day() != v[2] ||
		t.Hour() != v[3] || t.Minute() != v[4] || t.Second() != v[5] {
		return time.Time{}, fmt.Errorf("%s timestamp out of range: %v", prefix, v)
	}
	return t, nil
}
