package records

import (
	"errors"
	"strings"
	"time"

	"tmtops/api/internal/rowfilter"
	"tmtops/api/internal/sheets"
	"tmtops/api/internal/tasks"
)

// DELEGATION and Checklist sheet columns; both sheets share the layout.
const (
	DelegationTimestamp   = 0
	DelegationTaskID      = 1
	DelegationDepartment  = 2
	DelegationGivenBy     = 3
	DelegationDoer        = 4
	DelegationTitle       = 5
	DelegationDescription = 6
	DelegationDueDate     = 7
	DelegationFrequency   = 8
	DelegationReminders   = 9
	DelegationAttachment  = 10
	DelegationStatus      = 11
	DelegationActual      = 12
	delegationWidth       = 13
)

// DelegationFilter: a task is open until its actual column is stamped, and
// non-admins only see tasks assigned to them.
var DelegationFilter = rowfilter.Columns{Status: DelegationTaskID, Completion: DelegationActual, Owner: DelegationDoer}

type DelegationTask struct {
	TaskID            int             `json:"taskId"`
	Timestamp         time.Time       `json:"timestamp"`
	Department        string          `json:"department"`
	GivenBy           string          `json:"givenBy"`
	Doer              string          `json:"doer"`
	Title             string          `json:"title"`
	Description       string          `json:"description"`
	DueDate           string          `json:"dueDate"`
	Frequency         tasks.Frequency `json:"frequency"`
	EnableReminders   bool            `json:"enableReminders"`
	RequireAttachment bool            `json:"requireAttachment"`
	Status            string          `json:"status"`
	Actual            string          `json:"actual,omitempty"`
}

// DelegationSheet is where tasks of frequency f are written: one-time tasks
// to DELEGATION, recurring ones to Checklist.
func DelegationSheet(f tasks.Frequency) string {
	if f.Recurring() {
		return SheetChecklist
	}
	return SheetDelegation
}

// ExpandDelegation copies tmpl once per occurrence with consecutive task ids
// starting at firstID.
func ExpandDelegation(tmpl DelegationTask, occ []tasks.Occurrence, firstID int) []DelegationTask {
	out := make([]DelegationTask, len(occ))
	for i, o := range occ {
		t := tmpl
		t.TaskID = firstID + i
		t.DueDate = o.DueDate()
		if t.Status == "" {
			t.Status = StatusPending
		}
		out[i] = t
	}
	return out
}

func (d DelegationTask) Row() []any {
	row := make([]any, delegationWidth)
	for i := range row {
		row[i] = ""
	}
	row[DelegationTimestamp] = formatTime(d.Timestamp)
	row[DelegationTaskID] = d.TaskID
	row[DelegationDepartment] = d.Department
	row[DelegationGivenBy] = d.GivenBy
	row[DelegationDoer] = d.Doer
	row[DelegationTitle] = d.Title
	row[DelegationDescription] = d.Description
	row[DelegationDueDate] = d.DueDate
	row[DelegationFrequency] = string(d.Frequency)
	row[DelegationReminders] = yesNo(d.EnableReminders)
	row[DelegationAttachment] = yesNo(d.RequireAttachment)
	row[DelegationStatus] = d.Status
	row[DelegationActual] = d.Actual
	return row
}

func DecodeDelegation(r sheets.Row) (DelegationTask, error) {
	id, ok := r.Float(DelegationTaskID)
	if !ok {
		return DelegationTask{}, &SchemaError{Sheet: SheetDelegation, Column: "taskId", Err: errors.New("not a number")}
	}
	freq, _ := tasks.ParseFrequency(r.String(DelegationFrequency))
	return DelegationTask{
		TaskID:            int(id),
		Timestamp:         timestamp(r, DelegationTimestamp),
		Department:        text(r, DelegationDepartment),
		GivenBy:           text(r, DelegationGivenBy),
		Doer:              text(r, DelegationDoer),
		Title:             text(r, DelegationTitle),
		Description:       text(r, DelegationDescription),
		DueDate:           dateString(r, DelegationDueDate),
		Frequency:         freq,
		EnableReminders:   parseYesNo(r.String(DelegationReminders)),
		RequireAttachment: parseYesNo(r.String(DelegationAttachment)),
		Status:            strings.ToLower(text(r, DelegationStatus)),
		Actual:            display(r, DelegationActual),
	}, nil
}

// TaskIDs collects the numeric task ids already present in a sheet.
func TaskIDs(rows []sheets.Row) []int {
	out := make([]int, 0, len(rows))
	for _, r := range rows {
		if id, ok := r.Float(DelegationTaskID); ok {
			out = append(out, int(id))
		}
	}
	return out
}
