package httpserver

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/and161185/honeyrae/internal/errs"
	"github.com/and161185/honeyrae/internal/model"
)

type registerRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	AccountType string `json:"account_type"`
	Address     string `json:"address"`
	Specialty   string `json:"specialty"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Valid bool   `json:"valid"`
	Token string `json:"token,omitempty"`
}

type customerUpdateRequest struct {
	Address *string `json:"address"`
}

type customerJSON struct {
	ID       int64  `json:"id"`
	Address  string `json:"address"`
	FullName string `json:"full_name"`
}

type employeeJSON struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Specialty string `json:"specialty"`
}

type ticketEmployeeJSON struct {
	ID        int64  `json:"id"`
	Specialty string `json:"specialty"`
	FullName  string `json:"full_name"`
}

type ticketCustomerJSON struct {
	ID       int64  `json:"id"`
	FullName string `json:"full_name"`
}

type ticketJSON struct {
	ID            int64               `json:"id"`
	Description   string              `json:"description"`
	Emergency     bool                `json:"emergency"`
	DateCompleted *time.Time          `json:"date_completed"`
	Employee      *ticketEmployeeJSON `json:"employee"`
	Customer      ticketCustomerJSON  `json:"customer"`
}

func toCustomerJSON(c model.Customer) customerJSON {
	return customerJSON{ID: c.ID, Address: c.Address, FullName: model.FullName(c.FirstName, c.LastName)}
}

func toEmployeeJSON(e model.Employee) employeeJSON {
	return employeeJSON{ID: e.ID, Name: model.FullName(e.FirstName, e.LastName), Specialty: e.Specialty}
}

func toTicketJSON(t model.Ticket) ticketJSON {
	out := ticketJSON{
		ID:          t.ID,
		Description: t.Description,
		Emergency:   t.Emergency,
		Customer:    ticketCustomerJSON{ID: t.Customer.ID, FullName: t.Customer.FullName},
	}
	if t.DateCompleted != nil {
		ts := t.DateCompleted.UTC()
		out.DateCompleted = &ts
	}
	if t.Employee != nil {
		out.Employee = &ticketEmployeeJSON{ID: t.Employee.ID, Specialty: t.Employee.Specialty, FullName: t.Employee.FullName}
	}
	return out
}

// decodeJSON reads exactly one JSON value from r into v.
func decodeJSON(r io.Reader, v any) error {
	dec := json.NewDecoder(r)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errs.BadRequest("request body is empty")
		}
		return errs.BadRequest("malformed JSON: %v", err)
	}
	if dec.More() {
		return errs.BadRequest("trailing data after JSON body")
	}
	return nil
}

// decodeFields reads a JSON object keeping raw values, so that an absent
// field can be told apart from an explicit null.
func decodeFields(r io.Reader) (map[string]json.RawMessage, error) {
	var m map[string]json.RawMessage
	if err := decodeJSON(r, &m); err != nil {
		return nil, err
	}
	if m == nil {
		return nil, errs.BadRequest("request body must be a JSON object")
	}
	return m, nil
}

func isNull(raw json.RawMessage) bool { return bytes.Equal(bytes.TrimSpace(raw), []byte("null")) }

// ticketCreate is the validated POST /tickets body.
type ticketCreate struct {
	Description string
	Emergency   bool
}

func parseTicketCreate(r io.Reader) (ticketCreate, error) {
	m, err := decodeFields(r)
	if err != nil {
		return ticketCreate{}, err
	}
	for _, f := range []string{"employee", "employee_id", "date_completed"} {
		if _, ok := m[f]; ok {
			return ticketCreate{}, errs.BadRequest("%s cannot be set on a new ticket", f)
		}
	}
	var out ticketCreate
	raw, ok := m["description"]
	if !ok || isNull(raw) {
		return ticketCreate{}, errs.BadRequest("description is required")
	}
	if err := json.Unmarshal(raw, &out.Description); err != nil {
		return ticketCreate{}, errs.BadRequest("description must be a string")
	}
	if raw, ok := m["emergency"]; ok && !isNull(raw) {
		if err := json.Unmarshal(raw, &out.Emergency); err != nil {
			return ticketCreate{}, errs.BadRequest("emergency must be a boolean")
		}
	}
	return out, nil
}

// completionLayouts are the accepted date_completed formats besides "now".
var completionLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02"}

func parseCompletion(s string) (time.Time, bool) {
	for _, layout := range completionLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}

func parseEmployeeID(raw json.RawMessage) (int64, bool) {
	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return 0, false
	}
	switch x := v.(type) {
	case json.Number:
		n = x
	case string:
		n = json.Number(strings.TrimSpace(x))
	default:
		return 0, false
	}
	id, err := strconv.ParseInt(n.String(), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// parseTicketPatch decodes PUT /tickets/{id}. Unknown fields are ignored.
func parseTicketPatch(r io.Reader) (model.TicketPatch, error) {
	m, err := decodeFields(r)
	if err != nil {
		return model.TicketPatch{}, err
	}
	var p model.TicketPatch

	if raw, ok := m["employee"]; ok {
		p.EmployeeSet = true
		if !isNull(raw) {
			id, ok := parseEmployeeID(raw)
			if !ok {
				return model.TicketPatch{}, errs.BadRequest("employee must be an employee id or null")
			}
			p.EmployeeID = &id
		}
	}
	if raw, ok := m["date_completed"]; ok {
		p.DateCompletedSet = true
		if !isNull(raw) {
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				return model.TicketPatch{}, errs.BadRequest("date_completed must be a timestamp, \"now\" or null")
			}
			if strings.EqualFold(strings.TrimSpace(s), "now") {
				p.CompletedNow = true
			} else {
				ts, ok := parseCompletion(strings.TrimSpace(s))
				if !ok {
					return model.TicketPatch{}, errs.BadRequest("date_completed %q is not an ISO-8601 timestamp", s)
				}
				p.DateCompleted = &ts
			}
		}
	}
	if raw, ok := m["description"]; ok {
		var s string
		if isNull(raw) || json.Unmarshal(raw, &s) != nil {
			return model.TicketPatch{}, errs.BadRequest("description must be a string")
		}
		p.Description = &s
	}
	if raw, ok := m["emergency"]; ok {
		var b bool
		if isNull(raw) || json.Unmarshal(raw, &b) != nil {
			return model.TicketPatch{}, errs.BadRequest("emergency must be a boolean")
		}
		p.Emergency = &b
	}
	return p, nil
}
