package notification

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/bihar-gov/sevalink/internal/complaint/domain"
	"github.com/bihar-gov/sevalink/internal/shared/config"
	"github.com/bihar-gov/sevalink/internal/shared/types"
)

func newTestComplaint(t *testing.T) *domain.Complaint {
	t.Helper()

	c, err := domain.NewComplaint(
		"Street light not working",
		"The street light near gate 4 has been out for a week.",
		domain.CategoryElectricity,
		domain.PriorityHigh,
		domain.Citizen{Name: "Ramesh Kumar", Email: "ramesh@example.com", Phone: "+919800000000"},
		domain.Location{District: "Patna", State: "Bihar", Pincode: "800001"},
		nil,
	)
	if err != nil {
		t.Fatalf("failed to create complaint: %v", err)
	}
	c.AssignDepartment(domain.DepartmentRef{
		ID:   types.NewID(),
		Name: "Bihar State Electricity Board",
	})
	c.PendingTimeline()
	c.GetDomainEvents()
	return c
}

func newTestService(email, sms Provider) *Service {
	s := NewService(email, sms, nil, config.NotifyConfig{Workers: 2, BufferSize: 16})
	s.retryDelay = time.Millisecond
	return s
}

func waitForSent(t *testing.T, p *MockProvider, want int) []*Notification {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if sent := p.Sent(); len(sent) >= want {
			return sent
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d notifications, got %d", want, len(p.Sent()))
	return nil
}

func TestComplaintFiledDispatchesEmailAndSMS(t *testing.T) {
	email := NewMockProvider()
	sms := NewMockProvider()
	svc := newTestService(email, sms)

	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("failed to start service: %v", err)
	}
	defer svc.Stop()

	c := newTestComplaint(t)
	svc.ComplaintFiled(c)

	sentEmail := waitForSent(t, email, 1)
	sentSMS := waitForSent(t, sms, 1)

	if sentEmail[0].Recipient != "ramesh@example.com" {
		t.Errorf("unexpected email recipient %q", sentEmail[0].Recipient)
	}
	if !strings.Contains(sentEmail[0].Subject, c.ComplaintID) {
		t.Errorf("subject %q missing tracking number %q", sentEmail[0].Subject, c.ComplaintID)
	}
	if !strings.Contains(sentEmail[0].Body, "Bihar State Electricity Board") {
		t.Errorf("body missing department name: %q", sentEmail[0].Body)
	}
	if sentSMS[0].Recipient != "+919800000000" {
		t.Errorf("unexpected sms recipient %q", sentSMS[0].Recipient)
	}
}

func TestComplaintFiledSkipsSMSWithoutPhone(t *testing.T) {
	email := NewMockProvider()
	sms := NewMockProvider()
	svc := newTestService(email, sms)

	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("failed to start service: %v", err)
	}
	defer svc.Stop()

	c := newTestComplaint(t)
	c.Citizen.Phone = ""
	svc.ComplaintFiled(c)

	waitForSent(t, email, 1)
	if got := len(sms.Sent()); got != 0 {
		t.Errorf("expected no sms, got %d", got)
	}
}

func TestStatusChangedMentionsBothStatuses(t *testing.T) {
	email := NewMockProvider()
	svc := newTestService(email, NewMockProvider())

	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("failed to start service: %v", err)
	}
	defer svc.Stop()

	c := newTestComplaint(t)
	if err := c.UpdateStatus(domain.StatusInProgress, "Technician assigned to the area", types.NewID()); err != nil {
		t.Fatalf("failed to update status: %v", err)
	}
	svc.StatusChanged(c, domain.StatusNew)

	sent := waitForSent(t, email, 1)
	if !strings.Contains(sent[0].Body, "new") || !strings.Contains(sent[0].Body, "in progress") {
		t.Errorf("body missing status transition: %q", sent[0].Body)
	}
}

func TestProcessMarksSentAndFailed(t *testing.T) {
	provider := NewMockProvider()
	svc := newTestService(provider, NewMockProvider())

	n := &Notification{Channel: ChannelEmail, Recipient: "ramesh@example.com", Body: "hello"}
	svc.process(context.Background(), n)

	if n.Status != StatusSent {
		t.Errorf("expected status sent, got %s", n.Status)
	}
	if n.SentAt == nil {
		t.Error("expected sentAt to be set")
	}

	provider.SetFailOnSend(true)
	failed := &Notification{Channel: ChannelEmail, Recipient: "ramesh@example.com", Body: "hello"}
	svc.process(context.Background(), failed)

	if failed.Status != StatusFailed {
		t.Errorf("expected status failed, got %s", failed.Status)
	}
	if failed.RetryCount != retryAttempts-1 {
		t.Errorf("expected %d retries, got %d", retryAttempts-1, failed.RetryCount)
	}
	if failed.Error == "" {
		t.Error("expected error message to be recorded")
	}
}

func TestEnqueueDropsWhenBufferFull(t *testing.T) {
	svc := NewService(NewMockProvider(), NewMockProvider(), nil, config.NotifyConfig{Workers: 1, BufferSize: 1})

	// Service not started, so the single slot fills and the rest drop.
	svc.enqueue(&Notification{Channel: ChannelEmail, Recipient: "a@example.com"})
	svc.enqueue(&Notification{Channel: ChannelEmail, Recipient: "b@example.com"})

	if got := len(svc.notifCh); got != 1 {
		t.Errorf("expected 1 buffered notification, got %d", got)
	}
}

func TestStartTwiceFails(t *testing.T) {
	svc := newTestService(NewMockProvider(), NewMockProvider())

	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("failed to start service: %v", err)
	}
	defer svc.Stop()

	if err := svc.Start(context.Background()); err == nil {
		t.Error("expected second start to fail")
	}
}
