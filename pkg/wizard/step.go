package wizard

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"p9e.in/fieldreport/pkg/apperr"
)

// Step is one wizard action posted by the client
type Step struct {
	Name  string          `json:"name"`
	Input json.RawMessage `json:"input"`
}

func decodeInput(s Step, v any) error {
	if len(s.Input) == 0 {
		return apperr.Validation("step %q needs input", s.Name)
	}
	if err := json.Unmarshal(s.Input, v); err != nil {
		return apperr.Wrap(apperr.KindValidation, err, fmt.Sprintf("invalid input for step %q", s.Name))
	}
	return nil
}

type workerInput struct {
	EmployeeID uuid.UUID `json:"employee_id"`
	Hours      *float64  `json:"hours,omitempty"`
	Delta      float64   `json:"delta,omitempty"`
	CostCode   string    `json:"cost_code,omitempty"`
	Path       string    `json:"signature_path,omitempty"`
}

// ApplyPTPStep dispatches a named step onto a PTP draft
func ApplyPTPStep(d PTPDraft, s Step) (PTPDraft, error) {
	switch s.Name {
	case "header":
		var h PTPHeader
		if err := decodeInput(s, &h); err != nil {
			return d, err
		}
		return d.WithHeader(h)
	case "tasks":
		var tasks []TaskInput
		if err := decodeInput(s, &tasks); err != nil {
			return d, err
		}
		return d.WithTasks(tasks)
	case "workers":
		var ids []uuid.UUID
		if err := decodeInput(s, &ids); err != nil {
			return d, err
		}
		return d.WithWorkers(ids)
	case "signature":
		var in workerInput
		if err := decodeInput(s, &in); err != nil {
			return d, err
		}
		return d.WithSignature(in.EmployeeID, in.Path)
	case "photos":
		var paths []string
		if err := decodeInput(s, &paths); err != nil {
			return d, err
		}
		return d.WithPhotos(paths)
	default:
		return d, apperr.Validation("unknown PTP step %q", s.Name)
	}
}

// ApplyTimeCardStep dispatches a named step onto a time-card draft
func ApplyTimeCardStep(d TimeCardDraft, s Step) (TimeCardDraft, error) {
	switch s.Name {
	case "header":
		var h TimeCardHeader
		if err := decodeInput(s, &h); err != nil {
			return d, err
		}
		return d.WithHeader(h)
	case "add_worker":
		var in workerInput
		if err := decodeInput(s, &in); err != nil {
			return d, err
		}
		hours := DefaultHours
		if in.Hours != nil {
			hours = *in.Hours
		}
		return d.AddWorker(in.EmployeeID, hours)
	case "remove_worker":
		var in workerInput
		if err := decodeInput(s, &in); err != nil {
			return d, err
		}
		return d.RemoveWorker(in.EmployeeID)
	case "adjust_hours":
		var in workerInput
		if err := decodeInput(s, &in); err != nil {
			return d, err
		}
		return d.AdjustHours(in.EmployeeID, in.Delta)
	case "cost_code":
		var in workerInput
		if err := decodeInput(s, &in); err != nil {
			return d, err
		}
		return d.WithCostCode(in.EmployeeID, in.CostCode)
	default:
		return d, apperr.Validation("unknown time card step %q", s.Name)
	}
}
