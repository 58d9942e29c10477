package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"gorm.io/gorm"

	"condopix_app/internal/models"
)

type sentMessage struct {
	To   string
	Text string
}

type fakeMessenger struct {
	mu          sync.Mutex
	sent        []sentMessage
	readIDs     []string
	sendErr     error
	markReadErr error
}

func (m *fakeMessenger) SendTextMessage(_ context.Context, to, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, sentMessage{To: to, Text: text})
	return nil
}

func (m *fakeMessenger) MarkMessageAsRead(_ context.Context, messageID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.markReadErr != nil {
		return m.markReadErr
	}
	m.readIDs = append(m.readIDs, messageID)
	return nil
}

type fakeClientStore struct {
	nextID  uint
	clients map[string]*models.Client
}

func newFakeClientStore() *fakeClientStore {
	return &fakeClientStore{nextID: 1, clients: make(map[string]*models.Client)}
}

func (s *fakeClientStore) GetOrCreate(_ context.Context, data *models.Client) (*models.Client, bool, error) {
	if existing, ok := s.clients[data.Phone]; ok {
		existing.Name = data.Name
		existing.Condo = data.Condo
		existing.Block = data.Block
		existing.Apartment = data.Apartment
		return existing, false, nil
	}
	data.ID = s.nextID
	s.nextID++
	s.clients[data.Phone] = data
	return data, true, nil
}

type fakePaymentStore struct {
	nextID   uint
	payments []*models.Payment
}

func newFakePaymentStore() *fakePaymentStore {
	return &fakePaymentStore{nextID: 1}
}

func (s *fakePaymentStore) Create(_ context.Context, payment *models.Payment) error {
	payment.ID = s.nextID
	s.nextID++
	s.payments = append(s.payments, payment)
	return nil
}

func (s *fakePaymentStore) UpdateStatus(_ context.Context, payment *models.Payment, status models.PaymentStatus, mpPaymentID string, paidAt *time.Time) error {
	// Mirrors ux_payments_one_approved
	if status == models.PaymentStatusApproved {
		for _, p := range s.payments {
			if p.ID != payment.ID && p.ClientID == payment.ClientID &&
				p.MonthRef == payment.MonthRef && p.Status == models.PaymentStatusApproved {
				return gorm.ErrDuplicatedKey
			}
		}
	}
	payment.Status = status
	if mpPaymentID != "" {
		payment.MPPaymentID = mpPaymentID
	}
	if paidAt != nil {
		payment.PaidAt = paidAt
	}
	return nil
}

func (s *fakePaymentStore) GetByRequestID(_ context.Context, requestID string) (*models.Payment, error) {
	for _, p := range s.payments {
		if p.RequestID == requestID {
			return p, nil
		}
	}
	return nil, nil
}

func (s *fakePaymentStore) GetByMPPaymentID(_ context.Context, mpPaymentID string) (*models.Payment, error) {
	for _, p := range s.payments {
		if p.MPPaymentID == mpPaymentID {
			return p, nil
		}
	}
	return nil, nil
}

func (s *fakePaymentStore) GetApprovedForMonth(_ context.Context, clientID uint, monthRef string) (*models.Payment, error) {
	for _, p := range s.payments {
		if p.ClientID == clientID && p.MonthRef == monthRef && p.Status == models.PaymentStatusApproved {
			return p, nil
		}
	}
	return nil, nil
}

type fakeMarkerStore struct {
	mu      sync.Mutex
	markers map[string]bool
}

func newFakeMarkerStore() *fakeMarkerStore {
	return &fakeMarkerStore{markers: make(map[string]bool)}
}

func (s *fakeMarkerStore) InsertIfAbsent(_ context.Context, notificationID, mpPaymentID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := notificationID + "|" + mpPaymentID
	if s.markers[key] {
		return false, nil
	}
	s.markers[key] = true
	return true, nil
}

func (s *fakeMarkerStore) Remove(_ context.Context, notificationID, mpPaymentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.markers, notificationID+"|"+mpPaymentID)
	return nil
}

func (s *fakeMarkerStore) has(notificationID, mpPaymentID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.markers[notificationID+"|"+mpPaymentID]
}

type fakeProcessor struct {
	createParams []CreatePIXParams
	createCharge *PIXCharge
	createErr    error

	getCalls   int
	getPayment *ProcessorPayment
	getErr     error
}

func (p *fakeProcessor) CreatePIXPayment(_ context.Context, params CreatePIXParams) (*PIXCharge, error) {
	p.createParams = append(p.createParams, params)
	if p.createErr != nil {
		return nil, p.createErr
	}
	if p.createCharge == nil {
		return nil, errors.New("no charge configured")
	}
	return p.createCharge, nil
}

func (p *fakeProcessor) GetPayment(_ context.Context, _ string) (*ProcessorPayment, error) {
	p.getCalls++
	if p.getErr != nil {
		return nil, p.getErr
	}
	if p.getPayment == nil {
		return nil, errors.New("no payment configured")
	}
	return p.getPayment, nil
}

type mirroredUpdate struct {
	RequestID string
	Status    string
	PaidAt    *time.Time
}

type fakeMirror struct {
	rows    []PaymentRow
	updates []mirroredUpdate
}

func (m *fakeMirror) AppendPaymentRow(_ context.Context, row PaymentRow) error {
	m.rows = append(m.rows, row)
	return nil
}

func (m *fakeMirror) UpdateRowByRequestID(_ context.Context, requestID string, status string, paidAt *time.Time) error {
	m.updates = append(m.updates, mirroredUpdate{RequestID: requestID, Status: status, PaidAt: paidAt})
	return nil
}
