package types

import "fmt"

// EnrichmentResult is the aggregate outcome of one enrichment call. Once
// assembled, every slot holds exactly one of a payload or an error.
type EnrichmentResult struct {
	EntityID   string                    `json:"entityId,omitempty"`
	Bio        *string                   `json:"bio,omitempty"`
	BioError   *ErrorKind                `json:"bioError,omitempty"`
	Facts      map[ContentType]string    `json:"facts,omitempty"`
	FactErrors map[ContentType]ErrorKind `json:"factErrors,omitempty"`
}

func NewEnrichmentResult(entityID string) *EnrichmentResult {
	return &EnrichmentResult{
		EntityID:   entityID,
		Facts:      make(map[ContentType]string),
		FactErrors: make(map[ContentType]ErrorKind),
	}
}

// SetPayload records a successful slot, clearing any error previously recorded for it.
func (r *EnrichmentResult) SetPayload(slot ContentType, payload string) {
	if slot.IsBio() {
		r.Bio = &payload
		r.BioError = nil
		return
	}
	r.Facts[slot] = payload
	delete(r.FactErrors, slot)
}

// SetError records a failed slot, clearing any payload previously recorded for it.
func (r *EnrichmentResult) SetError(slot ContentType, kind ErrorKind) {
	if slot.IsBio() {
		r.BioError = &kind
		r.Bio = nil
		return
	}
	r.FactErrors[slot] = kind
	delete(r.Facts, slot)
}

func (r *EnrichmentResult) Payload(slot ContentType) (string, bool) {
	if slot.IsBio() {
		if r.Bio == nil {
			return "", false
		}
		return *r.Bio, true
	}
	p, ok := r.Facts[slot]
	return p, ok
}

func (r *EnrichmentResult) Err(slot ContentType) (ErrorKind, bool) {
	if slot.IsBio() {
		if r.BioError == nil {
			return ErrorKind{}, false
		}
		return *r.BioError, true
	}
	k, ok := r.FactErrors[slot]
	return k, ok
}

// Complete reports whether no slot failed.
func (r *EnrichmentResult) Complete() bool {
	return r.BioError == nil && len(r.FactErrors) == 0
}

// Partial reports whether some slots succeeded and some failed.
func (r *EnrichmentResult) Partial() bool {
	succeeded := len(r.Facts)
	if r.Bio != nil {
		succeeded++
	}
	return succeeded > 0 && !r.Complete()
}

// FailedSlots counts slots carrying an error.
func (r *EnrichmentResult) FailedSlots() int {
	n := len(r.FactErrors)
	if r.BioError != nil {
		n++
	}
	return n
}

// Check verifies that every slot in slots holds exactly one outcome.
func (r *EnrichmentResult) Check(slots []ContentType) error {
	for _, slot := range slots {
		_, hasPayload := r.Payload(slot)
		_, hasErr := r.Err(slot)
		if hasPayload == hasErr {
			return fmt.Errorf("slot %s: payload=%t error=%t", slot, hasPayload, hasErr)
		}
	}
	return nil
}

// Slots returns the slots that hold an outcome, in AllSlots order.
func (r *EnrichmentResult) Slots() []ContentType {
	var slots []ContentType
	for _, slot := range AllSlots() {
		_, hasPayload := r.Payload(slot)
		_, hasErr := r.Err(slot)
		if hasPayload || hasErr {
			slots = append(slots, slot)
		}
	}
	return slots
}
