package school

import "time"

const dateLayout = "2006-01-02"

// AttendanceRecord is one scan of a student id
type AttendanceRecord struct {
	StudentID string    `json:"studentId"`
	Date      time.Time `json:"date"`
	Time      string    `json:"time,omitempty"`
}

// ScannedStudent is a row of the "scanned today" list
type ScannedStudent struct {
	StudentID  string `json:"studentId"`
	Name       string `json:"name"`
	RollNumber string `json:"rollNumber"`
	ClassLabel string `json:"class"`
	Time       string `json:"time"`
}

// AttendanceStatus is Present or Absent for one day
type AttendanceStatus string

const (
	Present AttendanceStatus = "Present"
	Absent  AttendanceStatus = "Absent"
)

// AttendanceDay is one calendar day of a student's history
type AttendanceDay struct {
	Date   time.Time        `json:"date"`
	Status AttendanceStatus `json:"status"`
	Time   string           `json:"time,omitempty"`
}

// DateRange is an inclusive range of calendar days
type DateRange struct {
	Start time.Time `json:"startDate"`
	End   time.Time `json:"endDate"`
}

// NewDateRange truncates both ends to days and rejects end < start
func NewDateRange(start, end time.Time) (DateRange, error) {
	r := DateRange{Start: day(start), End: day(end)}
	if r.End.Before(r.Start) {
		return DateRange{}, ErrInvalidDateRange
	}
	return r, nil
}

// CurrentMonth returns the range from the first of now's month to now
func CurrentMonth(now time.Time) DateRange {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return DateRange{Start: first, End: day(now)}
}

// LastMonth returns the full calendar month before now's
func LastMonth(now time.Time) DateRange {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	start := first.AddDate(0, -1, 0)
	return DateRange{Start: start, End: first.AddDate(0, 0, -1)}
}

// Days returns the number of calendar days in the range
func (r DateRange) Days() int {
	n := 0
	for d := r.Start; !d.After(r.End); d = d.AddDate(0, 0, 1) {
		n++
	}
	return n
}

// StartParam and EndParam format the range for query strings
func (r DateRange) StartParam() string { return r.Start.Format(dateLayout) }
func (r DateRange) EndParam() string   { return r.End.Format(dateLayout) }

// BuildAttendanceHistory lists every day of the range, marking days that
// have a scan as Present.
func BuildAttendanceHistory(r DateRange, records []AttendanceRecord) []AttendanceDay {
	scanned := make(map[string]AttendanceRecord, len(records))
	for _, rec := range records {
		key := rec.Date.Format(dateLayout)
		if _, ok := scanned[key]; !ok {
			scanned[key] = rec
		}
	}

	days := make([]AttendanceDay, 0, r.Days())
	for d := r.Start; !d.After(r.End); d = d.AddDate(0, 0, 1) {
		entry := AttendanceDay{Date: d, Status: Absent}
		if rec, ok := scanned[d.Format(dateLayout)]; ok {
			entry.Status = Present
			entry.Time = rec.Time
		}
		days = append(days, entry)
	}
	return days
}

// CountPresent returns the number of Present days
func CountPresent(days []AttendanceDay) int {
	n := 0
	for _, d := range days {
		if d.Status == Present {
			n++
		}
	}
	return n
}

func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
