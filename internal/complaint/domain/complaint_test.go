package domain

import (
	"strings"
	"testing"

	"github.com/bihar-gov/sevalink/internal/shared/errors"
)

func newTestComplaint(t *testing.T) *Complaint {
	t.Helper()

	c, err := NewComplaint(
		"Streetlight not working",
		"The streetlight near the main crossing has been out for a week.",
		CategoryElectricity,
		PriorityMedium,
		Citizen{Name: "Ramesh Kumar", Email: "ramesh@example.com", Phone: "9800000001"},
		Location{District: "Patna", State: "Bihar", Pincode: "800001"},
		nil,
	)
	if err != nil {
		t.Fatalf("failed to create complaint: %v", err)
	}
	return c
}

func TestNewComplaint(t *testing.T) {
	c := newTestComplaint(t)

	if c.Status != StatusNew {
		t.Errorf("expected status new, got %s", c.Status)
	}
	if !strings.HasPrefix(c.ComplaintID, "SVL") {
		t.Errorf("expected tracking number with SVL prefix, got %s", c.ComplaintID)
	}
	if len(c.ComplaintID) != 16 {
		t.Errorf("expected 16 character tracking number, got %d (%s)", len(c.ComplaintID), c.ComplaintID)
	}

	if len(c.Timeline) != 1 {
		t.Fatalf("expected seeded timeline entry, got %d entries", len(c.Timeline))
	}
	if c.Timeline[0].Status != string(StatusNew) {
		t.Errorf("expected seeded entry with status new, got %s", c.Timeline[0].Status)
	}
	if c.Timeline[0].Note != "Complaint submitted successfully" {
		t.Errorf("unexpected seeded note: %s", c.Timeline[0].Note)
	}

	if len(c.Tags) == 0 || c.Tags[0] != "electricity" {
		t.Errorf("expected category as first tag, got %v", c.Tags)
	}

	events := c.GetDomainEvents()
	if len(events) != 1 || events[0].Type != "complaint.filed" {
		t.Errorf("expected one complaint.filed event, got %v", events)
	}
}

func TestNewComplaintDefaults(t *testing.T) {
	c, err := NewComplaint(
		"Water supply disruption",
		"No water supply in our locality since yesterday morning.",
		CategoryWater,
		"",
		Citizen{Name: "Sita Devi", Email: "SITA@Example.COM", Phone: "9800000002"},
		Location{District: "Gaya"},
		nil,
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if c.Priority != PriorityMedium {
		t.Errorf("expected default priority medium, got %s", c.Priority)
	}
	if c.Location.State != DefaultState {
		t.Errorf("expected default state %q, got %q", DefaultState, c.Location.State)
	}
	if c.Citizen.Email != "sita@example.com" {
		t.Errorf("expected lowercased email, got %s", c.Citizen.Email)
	}
	if c.Attachments == nil {
		t.Error("expected non-nil attachments slice")
	}
}

func TestNewComplaintValidation(t *testing.T) {
	valid := func() (string, string, Category, Priority, Citizen, Location) {
		return "Title", "A description long enough to pass.", CategoryRoads, PriorityLow,
			Citizen{Name: "A", Email: "a@b.c", Phone: "1"},
			Location{District: "Patna"}
	}

	tests := []struct {
		name   string
		mutate func(*string, *string, *Category, *Priority, *Citizen, *Location)
		field  string
	}{
		{"empty title", func(title *string, _ *string, _ *Category, _ *Priority, _ *Citizen, _ *Location) {
			*title = "  "
		}, "title"},
		{"title too long", func(title *string, _ *string, _ *Category, _ *Priority, _ *Citizen, _ *Location) {
			*title = strings.Repeat("x", 201)
		}, "title"},
		{"short description", func(_ *string, desc *string, _ *Category, _ *Priority, _ *Citizen, _ *Location) {
			*desc = "too short"
		}, "description"},
		{"long description", func(_ *string, desc *string, _ *Category, _ *Priority, _ *Citizen, _ *Location) {
			*desc = strings.Repeat("x", 2001)
		}, "description"},
		{"bad category", func(_ *string, _ *string, cat *Category, _ *Priority, _ *Citizen, _ *Location) {
			*cat = "plumbing"
		}, "category"},
		{"bad priority", func(_ *string, _ *string, _ *Category, pri *Priority, _ *Citizen, _ *Location) {
			*pri = "extreme"
		}, "priority"},
		{"missing citizen name", func(_ *string, _ *string, _ *Category, _ *Priority, cz *Citizen, _ *Location) {
			cz.Name = ""
		}, "citizen.name"},
		{"missing citizen email", func(_ *string, _ *string, _ *Category, _ *Priority, cz *Citizen, _ *Location) {
			cz.Email = ""
		}, "citizen.email"},
		{"missing district", func(_ *string, _ *string, _ *Category, _ *Priority, _ *Citizen, loc *Location) {
			loc.District = ""
		}, "location.district"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			title, desc, cat, pri, cz, loc := valid()
			tt.mutate(&title, &desc, &cat, &pri, &cz, &loc)

			_, err := NewComplaint(title, desc, cat, pri, cz, loc, nil)
			if err == nil {
				t.Fatal("expected validation error")
			}

			appErr, ok := errors.AsAppError(err)
			if !ok || appErr.Code != "VALIDATION_ERROR" {
				t.Fatalf("expected VALIDATION_ERROR, got %v", err)
			}
			if _, found := appErr.Details[tt.field]; !found {
				t.Errorf("expected detail for %q, got %v", tt.field, appErr.Details)
			}
		})
	}
}

func TestUpdateStatus(t *testing.T) {
	c := newTestComplaint(t)
	c.GetDomainEvents()
	c.PendingTimeline()

	if err := c.UpdateStatus(StatusInProgress, "Work order issued", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if c.Status != StatusInProgress {
		t.Errorf("expected status in_progress, got %s", c.Status)
	}
	if len(c.Timeline) != 2 {
		t.Fatalf("expected 2 timeline entries, got %d", len(c.Timeline))
	}
	if c.Timeline[1].Note != "Work order issued" {
		t.Errorf("unexpected note: %s", c.Timeline[1].Note)
	}

	pending := c.PendingTimeline()
	if len(pending) != 1 {
		t.Errorf("expected 1 pending entry, got %d", len(pending))
	}
	if got := c.PendingTimeline(); len(got) != 0 {
		t.Error("pending timeline should clear after read")
	}
}

func TestUpdateStatusAllowsAnyTransition(t *testing.T) {
	c := newTestComplaint(t)

	transitions := []Status{StatusResolved, StatusInProgress, StatusClosed, StatusNew}
	for _, s := range transitions {
		if err := c.UpdateStatus(s, "moving to "+string(s), ""); err != nil {
			t.Fatalf("transition to %s failed: %v", s, err)
		}
	}

	if c.Status != StatusNew {
		t.Errorf("expected final status new, got %s", c.Status)
	}
}

func TestUpdateStatusRequiresNote(t *testing.T) {
	c := newTestComplaint(t)

	err := c.UpdateStatus(StatusResolved, "   ", "")
	if err == nil {
		t.Fatal("expected error for empty note")
	}
	if c.Status != StatusNew {
		t.Errorf("status must not change on rejected update, got %s", c.Status)
	}
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	c := newTestComplaint(t)
	if err := c.UpdateStatus("archived", "note", ""); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestSubmitFeedback(t *testing.T) {
	c := newTestComplaint(t)
	if err := c.UpdateStatus(StatusResolved, "Fixed", ""); err != nil {
		t.Fatalf("setup: %v", err)
	}
	c.PendingTimeline()

	err := c.SubmitFeedback(4, "The issue was resolved quickly, thank you.", "Ramesh@Example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if c.Rating == nil || *c.Rating != 4 {
		t.Errorf("expected rating 4, got %v", c.Rating)
	}
	if c.Status != StatusResolved {
		t.Errorf("feedback must not change status, got %s", c.Status)
	}

	pending := c.PendingTimeline()
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending timeline entry, got %d", len(pending))
	}
	if pending[0].Status != TimelineStatusFeedback {
		t.Errorf("expected feedback_received entry, got %s", pending[0].Status)
	}
	if pending[0].Note != "Citizen provided feedback with 4 star rating" {
		t.Errorf("unexpected note: %s", pending[0].Note)
	}
}

func TestSubmitFeedbackRejections(t *testing.T) {
	resolved := func(t *testing.T) *Complaint {
		c := newTestComplaint(t)
		if err := c.UpdateStatus(StatusResolved, "Fixed", ""); err != nil {
			t.Fatalf("setup: %v", err)
		}
		return c
	}

	t.Run("wrong email is forbidden", func(t *testing.T) {
		c := resolved(t)
		err := c.SubmitFeedback(4, "Resolved quickly, thanks a lot.", "intruder@example.com")
		appErr, ok := errors.AsAppError(err)
		if !ok || appErr.Code != "FORBIDDEN" {
			t.Fatalf("expected FORBIDDEN, got %v", err)
		}
	})

	t.Run("not resolved is a conflict", func(t *testing.T) {
		c := newTestComplaint(t)
		err := c.SubmitFeedback(4, "Resolved quickly, thanks a lot.", "ramesh@example.com")
		appErr, ok := errors.AsAppError(err)
		if !ok || appErr.Code != "CONFLICT" {
			t.Fatalf("expected CONFLICT, got %v", err)
		}
	})

	t.Run("duplicate is a conflict", func(t *testing.T) {
		c := resolved(t)
		if err := c.SubmitFeedback(5, "Excellent work by the department.", "ramesh@example.com"); err != nil {
			t.Fatalf("first submission: %v", err)
		}
		err := c.SubmitFeedback(1, "Changed my mind about the service.", "ramesh@example.com")
		appErr, ok := errors.AsAppError(err)
		if !ok || appErr.Code != "CONFLICT" {
			t.Fatalf("expected CONFLICT, got %v", err)
		}
	})

	t.Run("rating out of range", func(t *testing.T) {
		c := resolved(t)
		for _, rating := range []int{0, 6, -1} {
			if err := c.SubmitFeedback(rating, "Resolved quickly, thanks a lot.", "ramesh@example.com"); err == nil {
				t.Errorf("expected error for rating %d", rating)
			}
		}
	})

	t.Run("feedback too short", func(t *testing.T) {
		c := resolved(t)
		if err := c.SubmitFeedback(4, "ok thanks", "ramesh@example.com"); err == nil {
			t.Error("expected error for short feedback")
		}
	})
}

func TestEscalate(t *testing.T) {
	c := newTestComplaint(t)

	if err := c.Escalate("No response from department", "District Magistrate", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if c.Priority != PriorityHigh {
		t.Errorf("expected priority bump to high, got %s", c.Priority)
	}
	if len(c.Escalations) != 1 || c.Escalations[0].Level != 1 {
		t.Errorf("expected one level-1 escalation, got %v", c.Escalations)
	}

	if err := c.Escalate("Still no response", "Chief Secretary", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Priority != PriorityUrgent {
		t.Errorf("expected priority urgent, got %s", c.Priority)
	}

	// Priority caps at the top
	if err := c.Escalate("Third escalation", "", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Priority != PriorityUrgent {
		t.Errorf("priority must cap at urgent, got %s", c.Priority)
	}
	if c.Escalations[2].Level != 3 {
		t.Errorf("expected level 3, got %d", c.Escalations[2].Level)
	}
}

func TestEscalateRejections(t *testing.T) {
	c := newTestComplaint(t)

	if err := c.Escalate("  ", "", ""); err == nil {
		t.Error("expected error for empty reason")
	}

	if err := c.UpdateStatus(StatusResolved, "Fixed", ""); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := c.Escalate("Reopen please", "", ""); err == nil {
		t.Error("expected error escalating a resolved complaint")
	}
}

func TestPriorityEscalated(t *testing.T) {
	tests := []struct {
		from Priority
		want Priority
	}{
		{PriorityLow, PriorityMedium},
		{PriorityMedium, PriorityHigh},
		{PriorityHigh, PriorityUrgent},
		{PriorityUrgent, PriorityUrgent},
	}

	for _, tt := range tests {
		if got := tt.from.Escalated(); got != tt.want {
			t.Errorf("Escalated(%s) = %s, want %s", tt.from, got, tt.want)
		}
	}
}

func TestNewComplaintNumberFormat(t *testing.T) {
	for i := 0; i < 20; i++ {
		n := NewComplaintNumber()
		if len(n) != 16 {
			t.Fatalf("expected 16 characters, got %d (%s)", len(n), n)
		}
		if !strings.HasPrefix(n, "SVL") {
			t.Fatalf("expected SVL prefix, got %s", n)
		}
		for _, ch := range n[3:] {
			if ch < '0' || ch > '9' {
				t.Fatalf("expected digits after prefix, got %s", n)
			}
		}
	}
}
