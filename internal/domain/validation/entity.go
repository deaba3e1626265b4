package validation

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusNotScheduled Status = "Not scheduled"
	StatusOff          Status = "OFF"
	StatusPTO          Status = "PTO"
	StatusScheduled    Status = "Scheduled"
	StatusCaution      Status = "CAUTION"
	StatusCritical     Status = "CRITICAL"
)

type Severity int

const (
	SeverityNone Severity = iota
	SeverityCaution
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityCaution:
		return "caution"
	case SeverityCritical:
		return "critical"
	default:
		return "none"
	}
}

// NoConflicts is written to the summary cell when a sheet has nothing to report.
const NoConflicts = "No conflicts"

type Employee struct {
	Name     string
	RowIndex int
}

type DayColumn struct {
	DayName     string
	Date        string // MM/DD
	ColumnIndex int
}

// Label is the "{day} {date}" form used in messages and log rows.
func (d DayColumn) Label() string {
	return d.DayName + " " + d.Date
}

// Snapshot is one sheet read in a single batch. Shifts[i] holds the raw
// cells of Employees[i], one per day.
type Snapshot struct {
	Sheet     string
	Employees []Employee
	Days      []DayColumn
	Shifts    [][]string
}

// ShiftAt returns the raw cell, or "" when the grid row is short.
func (s Snapshot) ShiftAt(employee, day int) string {
	if employee < 0 || employee >= len(s.Shifts) {
		return ""
	}
	row := s.Shifts[employee]
	if day < 0 || day >= len(row) {
		return ""
	}
	return row[day]
}

type CellResult struct {
	Day          string   `json:"day"`
	Date         string   `json:"date"`
	EmployeeName string   `json:"employee_name"`
	Status       Status   `json:"status"`
	Details      string   `json:"details"`
	Issues       []string `json:"issues"`
}

func (c CellResult) DayLabel() string {
	return c.Day + " " + c.Date
}

type DayCoverage struct {
	Day         string `json:"day"`
	HasOpener   bool   `json:"has_opener"`
	HasCloser   bool   `json:"has_closer"`
	HasMidShift bool   `json:"has_mid_shift"`
}

// Run is the outcome of validating one sheet. It is built fresh for every
// invocation and carries no state into the next one.
type Run struct {
	ID               uuid.UUID
	Sheet            string
	StartedAt        time.Time
	Cells            []CellResult
	CriticalWarnings []string
	CautionWarnings  []string
	Coverage         []DayCoverage
	MissingOpeners   []string
	MissingClosers   []string
	MissingMidShifts []string
}

// Summary joins the critical warnings, a blank line, and the caution
// warnings. Empty groups contribute nothing.
func (r Run) Summary() string {
	var lines []string
	lines = append(lines, r.CriticalWarnings...)
	if len(r.CriticalWarnings) > 0 && len(r.CautionWarnings) > 0 {
		lines = append(lines, "")
	}
	lines = append(lines, r.CautionWarnings...)
	if len(lines) == 0 {
		return NoConflicts
	}
	return strings.Join(lines, "\n")
}

func (r Run) HasConflicts() bool {
	return len(r.CriticalWarnings) > 0 || len(r.CautionWarnings) > 0
}

type DiscoveryMode string

const (
	// DiscoveryScan reads Count rows from StartRow and keeps rows with a name.
	DiscoveryScan DiscoveryMode = "scan"
	// DiscoveryFixed reads exactly the listed rows.
	DiscoveryFixed DiscoveryMode = "fixed"
)

var DiscoveryModeValues = []string{string(DiscoveryScan), string(DiscoveryFixed)}

type Discovery struct {
	Mode     DiscoveryMode
	StartRow int
	Count    int
	Rows     []int
}

type LogSchema string

const (
	LogSchemaBasic    LogSchema = "basic"
	LogSchemaDetailed LogSchema = "detailed"
)

var LogSchemaValues = []string{string(LogSchemaBasic), string(LogSchemaDetailed)}

// Header returns the log sheet header row for the schema.
func (s LogSchema) Header() []string {
	if s == LogSchemaBasic {
		return []string{"Date", "Employee Name", "Status"}
	}
	return []string{"Date", "Employee Name", "Status", "Details", "Issues"}
}

// Row renders one audit entry in the schema's column order.
func (s LogSchema) Row(c CellResult) []string {
	if s == LogSchemaBasic {
		return []string{c.DayLabel(), c.EmployeeName, string(c.Status)}
	}
	return []string{c.DayLabel(), c.EmployeeName, string(c.Status), c.Details, strings.Join(c.Issues, "; ")}
}

// Layout is the fixed grid geometry of a schedule sheet. Rows and columns
// are 1-based, as in the spreadsheet.
type Layout struct {
	DayRow         int
	DateRow        int
	FirstDayColumn int
	DayCount       int
	NameColumn     int
	SummaryCell    string
	Discovery      Discovery
}
