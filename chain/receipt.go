package chain

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/nspcc-dev/neo-go/pkg/util"
)

// Receipt is a result of the task execution.
type Receipt struct {
	ID          uuid.UUID
	Predecessor util.Uint160
	Receiver    util.Uint160
	Method      string
	Height      uint32
	// Value is JSON result of the successful invocation.
	Value []byte
	// Err is a reason of the invocation failure.
	Err error
	// Logs written by the successful invocation.
	Logs []string
}

// Events returns events from receipt logs.
func (r Receipt) Events() []Event {
	var res []Event
	for _, l := range r.Logs {
		if e, ok := ParseEvent(l); ok {
			res = append(res, e)
		}
	}
	return res
}

// Outcome is a list of receipts of executed tasks in execution order.
type Outcome struct {
	Receipts []Receipt
}

// Find returns receipts of the given method.
func (o *Outcome) Find(method string) []Receipt {
	var res []Receipt
	for i := range o.Receipts {
		if o.Receipts[i].Method == method {
			res = append(res, o.Receipts[i])
		}
	}
	return res
}

// Logs returns logs of all receipts.
func (o *Outcome) Logs() []string {
	var res []string
	for i := range o.Receipts {
		res = append(res, o.Receipts[i].Logs...)
	}
	return res
}

// Events returns events of all receipts.
func (o *Outcome) Events() []Event {
	var res []Event
	for i := range o.Receipts {
		res = append(res, o.Receipts[i].Events()...)
	}
	return res
}

// Failed returns receipts of failed invocations.
func (o *Outcome) Failed() []Receipt {
	var res []Receipt
	for i := range o.Receipts {
		if o.Receipts[i].Err != nil {
			res = append(res, o.Receipts[i])
		}
	}
	return res
}

// Event is a structured event emitted by a contract.
type Event struct {
	Standard string          `json:"standard"`
	Version  string          `json:"version"`
	Event    string          `json:"event"`
	Data     json.RawMessage `json:"data,omitempty"`
}

// ParseEvent decodes the log line written by Context.Emit.
func ParseEvent(line string) (Event, bool) {
	raw, ok := strings.CutPrefix(line, EventLogPrefix)
	if !ok {
		return Event{}, false
	}
	var e Event
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		return Event{}, false
	}
	return e, true
}
