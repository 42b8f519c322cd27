package types

import "testing"

func TestEnrichmentResult_SlotInvariant(t *testing.T) {
	r := NewEnrichmentResult("42")
	lore := FunFact(FunFactLore)

	r.SetError(lore, ErrorKind{Kind: KindRateLimited})
	r.SetPayload(lore, "fact")
	if _, ok := r.Err(lore); ok {
		t.Error("SetPayload left the previous error in place")
	}

	r.SetPayload(Bio(), "bio")
	r.SetError(Bio(), ErrorKind{Kind: KindTimeout})
	if r.Bio != nil {
		t.Error("SetError left the previous bio payload in place")
	}

	if err := r.Check([]ContentType{Bio(), lore}); err != nil {
		t.Errorf("Check() = %v, want nil", err)
	}
	if err := r.Check(AllSlots()); err == nil {
		t.Error("Check(AllSlots()) = nil, want error for unset slots")
	}
}

func TestEnrichmentResult_CompleteAndPartial(t *testing.T) {
	r := NewEnrichmentResult("42")
	r.SetPayload(Bio(), "bio")
	if !r.Complete() || r.Partial() {
		t.Errorf("Complete() = %v, Partial() = %v, want true, false", r.Complete(), r.Partial())
	}

	r.SetError(FunFact(FunFactSurprise), ErrorKind{Kind: KindNoContentAvailable})
	if r.Complete() || !r.Partial() {
		t.Errorf("Complete() = %v, Partial() = %v, want false, true", r.Complete(), r.Partial())
	}
	if got := r.FailedSlots(); got != 1 {
		t.Errorf("FailedSlots() = %d, want 1", got)
	}
}
