package service

import (
	"context"
	"time"

	"github.com/jeremygz0607/Customer-RMA-Portal/internal/application/port"
	"github.com/jeremygz0607/Customer-RMA-Portal/internal/domain/entity"
	"github.com/jeremygz0607/Customer-RMA-Portal/internal/domain/rules"
	"github.com/jeremygz0607/Customer-RMA-Portal/internal/domain/status"
)

type mockLogger struct{}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{})  {}
func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {}

type mockRmaRepo struct {
	createFunc         func(ctx context.Context, rma *entity.RmaRequest) error
	getByIDFunc        func(ctx context.Context, rmaID string) (*entity.RmaRequest, error)
	casFunc            func(ctx context.Context, rmaID string, from, to status.Status) (bool, error)
	overrideFunc       func(ctx context.Context, rmaID string, to status.Status) error
	recordTermsFunc    func(ctx context.Context, rmaID, ip, userAgent string, at time.Time) error
	updateTicketsFunc  func(ctx context.Context, rmaID, ticketID, contactID, dealID string) error
	countOtherOpenFunc func(ctx context.Context, excludeRmaID, orderID, orderItemID string, cutoff time.Time) (int, error)
	listQueueFunc      func(ctx context.Context, filter port.QueueFilter) ([]*entity.RmaQueueItem, error)
	casCalls           []statusSwap
}

type statusSwap struct {
	from status.Status
	to   status.Status
}

func (m *mockRmaRepo) Create(ctx context.Context, rma *entity.RmaRequest) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, rma)
	}
	return nil
}

func (m *mockRmaRepo) GetByID(ctx context.Context, rmaID string) (*entity.RmaRequest, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, rmaID)
	}
	return nil, nil
}

func (m *mockRmaRepo) CompareAndSwapStatus(ctx context.Context, rmaID string, from, to status.Status) (bool, error) {
	m.casCalls = append(m.casCalls, statusSwap{from: from, to: to})
	if m.casFunc != nil {
		return m.casFunc(ctx, rmaID, from, to)
	}
	return true, nil
}

func (m *mockRmaRepo) OverrideStatus(ctx context.Context, rmaID string, to status.Status) error {
	if m.overrideFunc != nil {
		return m.overrideFunc(ctx, rmaID, to)
	}
	return nil
}

func (m *mockRmaRepo) RecordTermsAcceptance(ctx context.Context, rmaID, ip, userAgent string, at time.Time) error {
	if m.recordTermsFunc != nil {
		return m.recordTermsFunc(ctx, rmaID, ip, userAgent, at)
	}
	return nil
}

func (m *mockRmaRepo) UpdateTicketRefs(ctx context.Context, rmaID, ticketID, contactID, dealID string) error {
	if m.updateTicketsFunc != nil {
		return m.updateTicketsFunc(ctx, rmaID, ticketID, contactID, dealID)
	}
	return nil
}

func (m *mockRmaRepo) CountOtherOpenSince(ctx context.Context, excludeRmaID, orderID, orderItemID string, cutoff time.Time) (int, error) {
	if m.countOtherOpenFunc != nil {
		return m.countOtherOpenFunc(ctx, excludeRmaID, orderID, orderItemID, cutoff)
	}
	return 0, nil
}

func (m *mockRmaRepo) ListQueue(ctx context.Context, filter port.QueueFilter) ([]*entity.RmaQueueItem, error) {
	if m.listQueueFunc != nil {
		return m.listQueueFunc(ctx, filter)
	}
	return nil, nil
}

type mockTsRepo struct {
	getFunc  func(ctx context.Context, rmaID string) (*entity.TroubleshootingData, error)
	saveFunc func(ctx context.Context, data *entity.TroubleshootingData) error
	saved    *entity.TroubleshootingData
}

func (m *mockTsRepo) Get(ctx context.Context, rmaID string) (*entity.TroubleshootingData, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, rmaID)
	}
	return nil, nil
}

func (m *mockTsRepo) Save(ctx context.Context, data *entity.TroubleshootingData) error {
	m.saved = data
	if m.saveFunc != nil {
		return m.saveFunc(ctx, data)
	}
	return nil
}

type mockPlaybookRepo struct {
	getActiveFunc     func(ctx context.Context, skuGroupName string) (*entity.Playbook, error)
	appendVersionFunc func(ctx context.Context, skuGroupName string, steps []entity.PlaybookStep) (int, error)
}

func (m *mockPlaybookRepo) GetActive(ctx context.Context, skuGroupName string) (*entity.Playbook, error) {
	if m.getActiveFunc != nil {
		return m.getActiveFunc(ctx, skuGroupName)
	}
	return nil, nil
}

func (m *mockPlaybookRepo) AppendVersion(ctx context.Context, skuGroupName string, steps []entity.PlaybookStep) (int, error) {
	if m.appendVersionFunc != nil {
		return m.appendVersionFunc(ctx, skuGroupName, steps)
	}
	return 1, nil
}

type mockLabelRepo struct {
	getFunc    func(ctx context.Context, rmaID string) (*entity.RmaLabel, error)
	upsertFunc func(ctx context.Context, label *entity.RmaLabel) error
	upserted   *entity.RmaLabel
}

func (m *mockLabelRepo) Get(ctx context.Context, rmaID string) (*entity.RmaLabel, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, rmaID)
	}
	return nil, nil
}

func (m *mockLabelRepo) Upsert(ctx context.Context, label *entity.RmaLabel) error {
	m.upserted = label
	if m.upsertFunc != nil {
		return m.upsertFunc(ctx, label)
	}
	return nil
}

type mockAuditRepo struct {
	appendFunc func(ctx context.Context, entry *entity.AuditLogEntry) error
	entries    []*entity.AuditLogEntry
}

func (m *mockAuditRepo) Append(ctx context.Context, entry *entity.AuditLogEntry) error {
	if m.appendFunc != nil {
		if err := m.appendFunc(ctx, entry); err != nil {
			return err
		}
	}
	m.entries = append(m.entries, entry)
	return nil
}

func (m *mockAuditRepo) ListByRma(ctx context.Context, rmaID string) ([]*entity.AuditLogEntry, error) {
	return m.entries, nil
}

func (m *mockAuditRepo) eventTypes() []string {
	var types []string
	for _, e := range m.entries {
		types = append(types, e.EventType)
	}
	return types
}

type mockWarehouse struct {
	findOrderItemFunc func(ctx context.Context, orderID, sku string) (*port.OrderItem, error)
	checkWarrantyFunc func(ctx context.Context, orderItemID string) (*port.WarrantyStatus, error)
	skuGroupFunc      func(ctx context.Context, sku string) (string, error)
}

func (m *mockWarehouse) FindOrderItem(ctx context.Context, orderID, sku string) (*port.OrderItem, error) {
	if m.findOrderItemFunc != nil {
		return m.findOrderItemFunc(ctx, orderID, sku)
	}
	return nil, nil
}

func (m *mockWarehouse) CheckWarranty(ctx context.Context, orderItemID string) (*port.WarrantyStatus, error) {
	if m.checkWarrantyFunc != nil {
		return m.checkWarrantyFunc(ctx, orderItemID)
	}
	return &port.WarrantyStatus{Eligible: true}, nil
}

func (m *mockWarehouse) SkuGroup(ctx context.Context, sku string) (string, error) {
	if m.skuGroupFunc != nil {
		return m.skuGroupFunc(ctx, sku)
	}
	return "default-group", nil
}

type mockTicketing struct {
	ensureTicketFunc func(ctx context.Context, rma *entity.RmaRequest, email string) (*port.TicketContact, error)
	addNoteFunc      func(ctx context.Context, ticketID, note string) error
	notes            []string
}

func (m *mockTicketing) EnsureTicket(ctx context.Context, rma *entity.RmaRequest, email string) (*port.TicketContact, error) {
	if m.ensureTicketFunc != nil {
		return m.ensureTicketFunc(ctx, rma, email)
	}
	return nil, nil
}

func (m *mockTicketing) UpdateStage(ctx context.Context, ticketID, stage string) error {
	return nil
}

func (m *mockTicketing) AddNote(ctx context.Context, ticketID, note string) error {
	m.notes = append(m.notes, note)
	if m.addNoteFunc != nil {
		return m.addNoteFunc(ctx, ticketID, note)
	}
	return nil
}

type mockCarrier struct {
	getRatesFunc      func(ctx context.Context, rma *entity.RmaRequest) ([]port.LabelRate, error)
	buyLabelFunc      func(ctx context.Context, shipmentID, rateID string) (*port.PurchasedLabel, error)
	downloadLabelFunc func(ctx context.Context, labelURL string) ([]byte, error)
}

func (m *mockCarrier) GetRates(ctx context.Context, rma *entity.RmaRequest) ([]port.LabelRate, error) {
	if m.getRatesFunc != nil {
		return m.getRatesFunc(ctx, rma)
	}
	return nil, nil
}

func (m *mockCarrier) BuyLabel(ctx context.Context, shipmentID, rateID string) (*port.PurchasedLabel, error) {
	if m.buyLabelFunc != nil {
		return m.buyLabelFunc(ctx, shipmentID, rateID)
	}
	return &port.PurchasedLabel{ShipmentID: shipmentID, RateID: rateID}, nil
}

func (m *mockCarrier) DownloadLabel(ctx context.Context, labelURL string) ([]byte, error) {
	if m.downloadLabelFunc != nil {
		return m.downloadLabelFunc(ctx, labelURL)
	}
	return []byte("label"), nil
}

type mockStorage struct {
	saveFunc func(ctx context.Context, path string, content []byte) error
	saved    map[string][]byte
}

func (m *mockStorage) Save(ctx context.Context, path string, content []byte) error {
	if m.saveFunc != nil {
		if err := m.saveFunc(ctx, path, content); err != nil {
			return err
		}
	}
	if m.saved == nil {
		m.saved = make(map[string][]byte)
	}
	m.saved[path] = content
	return nil
}

func (m *mockStorage) Read(ctx context.Context, path string) ([]byte, error) {
	return m.saved[path], nil
}

func (m *mockStorage) Exists(ctx context.Context, path string) bool {
	_, ok := m.saved[path]
	return ok
}

func (m *mockStorage) Delete(ctx context.Context, path string) error {
	delete(m.saved, path)
	return nil
}

func (m *mockStorage) GetFullPath(relativePath string) string {
	return "/data/" + relativePath
}

func (m *mockStorage) DeleteOlderThan(ctx context.Context, prefix string, cutoff time.Time) (int, error) {
	return 0, nil
}

type mockNotifier struct {
	notifyFunc func(ctx context.Context, rma *entity.RmaRequest, reasonCode, reasonMessage string) error
	calls      int
}

func (m *mockNotifier) NotifyReviewNeeded(ctx context.Context, rma *entity.RmaRequest, reasonCode, reasonMessage string) error {
	m.calls++
	if m.notifyFunc != nil {
		return m.notifyFunc(ctx, rma, reasonCode, reasonMessage)
	}
	return nil
}

type mockAssist struct {
	summarizeFunc func(ctx context.Context, rma *entity.RmaRequest, ts *entity.TroubleshootingData, pb *entity.Playbook) (*port.AssistSuggestion, error)
}

func (m *mockAssist) Summarize(ctx context.Context, rma *entity.RmaRequest, ts *entity.TroubleshootingData, pb *entity.Playbook) (*port.AssistSuggestion, error) {
	if m.summarizeFunc != nil {
		return m.summarizeFunc(ctx, rma, ts, pb)
	}
	return &port.AssistSuggestion{Summary: "ok"}, nil
}

type mockInspector struct {
	inspectFunc func(data []byte) (int, error)
}

func (m *mockInspector) InspectPDF(data []byte) (int, error) {
	if m.inspectFunc != nil {
		return m.inspectFunc(data)
	}
	return 1, nil
}

type mockTokenIssuer struct {
	issueFunc func(rmaID, brand string) (string, error)
}

func (m *mockTokenIssuer) Issue(rmaID, brand string) (string, error) {
	if m.issueFunc != nil {
		return m.issueFunc(rmaID, brand)
	}
	return "token", nil
}

type mockEngine struct {
	evaluateFunc func(ctx context.Context, rma *entity.RmaRequest, ts *entity.TroubleshootingData) (*rules.Result, error)
}

func (m *mockEngine) Evaluate(ctx context.Context, rma *entity.RmaRequest, ts *entity.TroubleshootingData) (*rules.Result, error) {
	if m.evaluateFunc != nil {
		return m.evaluateFunc(ctx, rma, ts)
	}
	return &rules.Result{Decision: rules.DecisionAuthorized, ReasonCode: rules.ReasonAutoApproved}, nil
}
