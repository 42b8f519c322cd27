package server

import (
	"github.com/LavishGent/linernotes/internal/resilience"
	"github.com/LavishGent/linernotes/internal/types"
)

// SlotReport is the presentation of one slot: its content, or the failure
// kind with the text to show instead.
type SlotReport struct {
	Slot    string `json:"slot"`
	Content string `json:"content,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// Report is the presentation of one enrichment result.
type Report struct {
	Name     string       `json:"name"`
	EntityID string       `json:"entityId,omitempty"`
	Complete bool         `json:"complete"`
	Slots    []SlotReport `json:"slots"`
}

// NewReport lists slots in the given order. Slots without an outcome are
// reported as unknown failures.
func NewReport(name string, slots []types.ContentType, res *types.EnrichmentResult) Report {
	r := Report{
		Name:     name,
		EntityID: res.EntityID,
		Complete: res.Complete(),
		Slots:    make([]SlotReport, 0, len(slots)),
	}
	for _, slot := range slots {
		sr := SlotReport{Slot: slot.String()}
		if payload, ok := res.Payload(slot); ok {
			sr.Content = payload
		} else {
			kind, ok := res.Err(slot)
			if !ok {
				kind = types.ErrorKind{Kind: types.KindUnknown}
			}
			sr.Error = kind.String()
			sr.Message = resilience.FallbackMessage(kind)
		}
		r.Slots = append(r.Slots, sr)
	}
	return r
}
