package notification

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/bihar-gov/sevalink/internal/complaint/domain"
	"github.com/bihar-gov/sevalink/internal/shared/config"
	"github.com/bihar-gov/sevalink/internal/shared/metrics"
	"github.com/bihar-gov/sevalink/internal/shared/types"
)

const (
	defaultWorkers    = 4
	defaultBufferSize = 1000
	retryAttempts     = 2
	retryDelay        = 2 * time.Second
)

// Service dispatches complaint notifications through a worker pool.
// Dispatch is best-effort: a full buffer or a failed send is logged
// and counted, never surfaced to the caller.
type Service struct {
	email Provider
	sms   Provider
	log   *LogRepository

	notifCh    chan *Notification
	workers    int
	retryDelay time.Duration

	mu      sync.Mutex
	started bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewService creates a notification service. The log repository may be
// nil when no database is available.
func NewService(email, sms Provider, log *LogRepository, cfg config.NotifyConfig) *Service {
	workers := cfg.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	bufferSize := cfg.BufferSize
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}

	return &Service{
		email:      email,
		sms:        sms,
		log:        log,
		notifCh:    make(chan *Notification, bufferSize),
		workers:    workers,
		retryDelay: retryDelay,
		stopCh:     make(chan struct{}),
	}
}

// Start launches the worker pool
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("notification service already started")
	}
	s.started = true

	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go s.worker(ctx)
	}

	logrus.WithField("workers", s.workers).Info("notification dispatcher started")
	return nil
}

// Stop stops the worker pool and waits for in-flight sends
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	s.mu.Unlock()

	close(s.stopCh)
	s.wg.Wait()
}

// --- Complaint lifecycle hooks ---

// ComplaintFiled notifies the citizen that the complaint was registered
func (s *Service) ComplaintFiled(c *domain.Complaint) {
	s.enqueue(&Notification{
		ComplaintID: c.ComplaintID,
		Channel:     ChannelEmail,
		Recipient:   c.Citizen.Email,
		Subject:     fmt.Sprintf("Complaint Registered - %s", c.ComplaintID),
		Body: fmt.Sprintf(
			"Dear %s,\n\nYour complaint has been registered with tracking number %s "+
				"and assigned to %s.\n\nYou can track its progress anytime using the tracking number.\n\nSevaLink",
			c.Citizen.Name, c.ComplaintID, c.Department.Name),
	})

	if c.Citizen.Phone != "" {
		s.enqueue(&Notification{
			ComplaintID: c.ComplaintID,
			Channel:     ChannelSMS,
			Recipient:   c.Citizen.Phone,
			Body: fmt.Sprintf("SevaLink: complaint %s registered and assigned to %s.",
				c.ComplaintID, c.Department.Name),
		})
	}
}

// StatusChanged notifies the citizen about a status transition
func (s *Service) StatusChanged(c *domain.Complaint, oldStatus domain.Status) {
	s.enqueue(&Notification{
		ComplaintID: c.ComplaintID,
		Channel:     ChannelEmail,
		Recipient:   c.Citizen.Email,
		Subject:     fmt.Sprintf("Complaint Update - %s", c.ComplaintID),
		Body: fmt.Sprintf(
			"Dear %s,\n\nThe status of your complaint %s changed from %s to %s.\n\nSevaLink",
			c.Citizen.Name, c.ComplaintID, statusLabel(string(oldStatus)), statusLabel(string(c.Status))),
	})

	if c.Citizen.Phone != "" {
		s.enqueue(&Notification{
			ComplaintID: c.ComplaintID,
			Channel:     ChannelSMS,
			Recipient:   c.Citizen.Phone,
			Body: fmt.Sprintf("SevaLink: complaint %s is now %s.",
				c.ComplaintID, statusLabel(string(c.Status))),
		})
	}
}

// FeedbackReceived acknowledges the citizen's feedback
func (s *Service) FeedbackReceived(c *domain.Complaint) {
	rating := 0
	if c.Rating != nil {
		rating = *c.Rating
	}

	s.enqueue(&Notification{
		ComplaintID: c.ComplaintID,
		Channel:     ChannelEmail,
		Recipient:   c.Citizen.Email,
		Subject:     fmt.Sprintf("Feedback Received - %s", c.ComplaintID),
		Body: fmt.Sprintf(
			"Dear %s,\n\nThank you for rating the resolution of complaint %s with %d stars. "+
				"Your feedback helps us improve.\n\nSevaLink",
			c.Citizen.Name, c.ComplaintID, rating),
	})
}

// ComplaintEscalated notifies the department about an escalation
func (s *Service) ComplaintEscalated(c *domain.Complaint) {
	level := len(c.Escalations)

	s.enqueue(&Notification{
		ComplaintID: c.ComplaintID,
		Channel:     ChannelEmail,
		Recipient:   c.Citizen.Email,
		Subject:     fmt.Sprintf("Complaint Escalated - %s", c.ComplaintID),
		Body: fmt.Sprintf(
			"Dear %s,\n\nYour complaint %s has been escalated to level %d and its priority raised to %s.\n\nSevaLink",
			c.Citizen.Name, c.ComplaintID, level, c.Priority),
	})
}

// enqueue submits a notification for async dispatch. Never blocks.
func (s *Service) enqueue(n *Notification) {
	n.ID = types.NewID()
	n.Status = StatusPending
	n.CreatedAt = time.Now()

	select {
	case s.notifCh <- n:
	default:
		metrics.RecordNotification(string(n.Channel), "dropped")
		logrus.WithFields(logrus.Fields{
			"channel":   n.Channel,
			"complaint": n.ComplaintID,
		}).Warn("notification buffer full, dropping")
	}
}

func (s *Service) worker(ctx context.Context) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case n := <-s.notifCh:
			s.process(ctx, n)
		}
	}
}

func (s *Service) process(ctx context.Context, n *Notification) {
	provider := s.providerFor(n.Channel)

	var err error
	for attempt := 0; attempt < retryAttempts; attempt++ {
		if attempt > 0 {
			n.RetryCount++
			select {
			case <-time.After(s.retryDelay):
			case <-s.stopCh:
				return
			}
		}

		if provider == nil {
			err = fmt.Errorf("%s provider not configured", n.Channel)
			break
		}

		if err = provider.Send(ctx, n); err == nil {
			break
		}
	}

	if err != nil {
		n.Status = StatusFailed
		n.Error = err.Error()
		metrics.RecordNotification(string(n.Channel), "failed")
		logrus.WithError(err).WithFields(logrus.Fields{
			"channel":   n.Channel,
			"complaint": n.ComplaintID,
		}).Warn("notification dispatch failed")
	} else {
		now := time.Now()
		n.Status = StatusSent
		n.SentAt = &now
		metrics.RecordNotification(string(n.Channel), "sent")
	}

	if s.log != nil {
		if logErr := s.log.Append(ctx, n); logErr != nil {
			logrus.WithError(logErr).Warn("failed to persist notification log entry")
		}
	}
}

func (s *Service) providerFor(channel Channel) Provider {
	switch channel {
	case ChannelEmail:
		return s.email
	case ChannelSMS:
		return s.sms
	}
	return nil
}

// statusLabel renders a lifecycle status for citizen-facing text
func statusLabel(status string) string {
	return strings.ReplaceAll(status, "_", " ")
}
