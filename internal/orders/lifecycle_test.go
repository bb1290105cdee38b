package orders

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/gocql/gocql"

	"fusionmarkt_backend/internal/models"
	"fusionmarkt_backend/internal/payment/iyzico"
)

// --- fakes ---

type fakeStore struct {
	orders     map[gocql.UUID]*models.Order
	history    []models.StatusHistoryEntry
	attempts   []models.GatewayAttempt
	userEmails map[string]string
	updateErr  error
	deleted    []gocql.UUID
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		orders:     make(map[gocql.UUID]*models.Order),
		userEmails: make(map[string]string),
	}
}

func (s *fakeStore) FindOrder(_ context.Context, id gocql.UUID) (*models.Order, error) {
	o, ok := s.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	clone := *o
	clone.Items = append([]models.OrderItem(nil), o.Items...)
	clone.PaymentTransactions = append([]models.PaymentTransaction(nil), o.PaymentTransactions...)
	return &clone, nil
}

func (s *fakeStore) UpdateOrder(_ context.Context, o *models.Order, expectedVersion int64) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	current, ok := s.orders[o.ID]
	if !ok {
		return ErrOrderNotFound
	}
	if current.Version != expectedVersion {
		return ErrTransitionConflict
	}
	clone := *o
	s.orders[o.ID] = &clone
	return nil
}

func (s *fakeStore) AppendHistory(_ context.Context, entry models.StatusHistoryEntry) error {
	s.history = append(s.history, entry)
	return nil
}

func (s *fakeStore) DeleteOrder(_ context.Context, o *models.Order) error {
	if _, ok := s.orders[o.ID]; !ok {
		return ErrOrderNotFound
	}
	delete(s.orders, o.ID)
	s.deleted = append(s.deleted, o.ID)
	return nil
}

func (s *fakeStore) RecordGatewayAttempt(_ context.Context, a models.GatewayAttempt) error {
	s.attempts = append(s.attempts, a)
	return nil
}

func (s *fakeStore) UserEmail(_ context.Context, userID string) (string, error) {
	if email, ok := s.userEmails[userID]; ok {
		return email, nil
	}
	return "", errors.New("utilisateur inconnu")
}

type fakeStock struct {
	products map[string]int // productID -> incrément cumulé
	variants map[string]int // variantID -> incrément cumulé
}

func newFakeStock() *fakeStock {
	return &fakeStock{products: make(map[string]int), variants: make(map[string]int)}
}

func (s *fakeStock) RestoreProductStock(_ context.Context, productID gocql.UUID, qty int, _ string) error {
	s.products[productID.String()] += qty
	return nil
}

func (s *fakeStock) RestoreVariantStock(_ context.Context, _ gocql.UUID, variantID string, qty int, _ string) error {
	s.variants[variantID] += qty
	return nil
}

type refundCall struct {
	TxID  string
	Price float64
}

type fakeGateway struct {
	cancelResult *iyzico.Result
	cancelErr    error
	refundResult *iyzico.Result
	refundErr    error
	cancelCalls  int
	refundCalls  []refundCall
}

func (g *fakeGateway) Cancel(_ context.Context, _ iyzico.CancelRequest) (*iyzico.Result, error) {
	g.cancelCalls++
	return g.cancelResult, g.cancelErr
}

func (g *fakeGateway) Refund(_ context.Context, req iyzico.RefundRequest) (*iyzico.Result, error) {
	g.refundCalls = append(g.refundCalls, refundCall{TxID: req.PaymentTransactionID, Price: req.Price})
	return g.refundResult, g.refundErr
}

type notification struct {
	OrderNumber string
	Recipient   string
}

type fakeNotifier struct {
	statusChanged    []notification
	paymentConfirmed []notification
}

func (n *fakeNotifier) OrderStatusChanged(_ context.Context, o *models.Order, recipient string) error {
	n.statusChanged = append(n.statusChanged, notification{o.OrderNumber, recipient})
	return nil
}

func (n *fakeNotifier) PaymentConfirmed(_ context.Context, o *models.Order, recipient string) error {
	n.paymentConfirmed = append(n.paymentConfirmed, notification{o.OrderNumber, recipient})
	return nil
}

type fakeLocker struct{ err error }

func (l *fakeLocker) Acquire(_ context.Context, _ string, _ time.Duration) (func(), error) {
	if l.err != nil {
		return nil, l.err
	}
	return func() {}, nil
}

// --- aides ---

type fixture struct {
	ctrl     *Controller
	store    *fakeStore
	stock    *fakeStock
	gateway  *fakeGateway
	notifier *fakeNotifier
	now      time.Time
}

func newFixture(t *testing.T, gatewayEnabled bool) *fixture {
	t.Helper()
	f := &fixture{
		store:    newFakeStore(),
		stock:    newFakeStock(),
		gateway:  &fakeGateway{},
		notifier: &fakeNotifier{},
		now:      time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC),
	}
	f.ctrl = NewController(f.store, f.stock, f.gateway, gatewayEnabled, f.notifier, nil)
	f.ctrl.now = func() time.Time { return f.now }
	return f
}

func (f *fixture) addOrder(o *models.Order) gocql.UUID {
	if o.ID == (gocql.UUID{}) {
		o.ID = gocql.TimeUUID()
	}
	f.store.orders[o.ID] = o
	return o.ID
}

func strPtr(s string) *string { return &s }

func basicOrder(number string) *models.Order {
	return &models.Order{
		OrderNumber:   number,
		BillingEmail:  "musteri@example.com",
		Status:        models.OrderStatusPending,
		PaymentStatus: models.PaymentStatusPending,
		Total:         1500.00,
	}
}

// --- tests ---

func TestTransition_NotFound(t *testing.T) {
	f := newFixture(t, false)
	_, err := f.ctrl.Transition(context.Background(), gocql.TimeUUID(), TransitionRequest{Status: strPtr(models.OrderStatusShipped)})
	if !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("ErrOrderNotFound attendu, obtenu %v", err)
	}
}

func TestTransition_InvalidStatus(t *testing.T) {
	f := newFixture(t, false)
	id := f.addOrder(basicOrder("FM-1000"))
	if _, err := f.ctrl.Transition(context.Background(), id, TransitionRequest{Status: strPtr("TELEPORTED")}); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("ErrInvalidStatus attendu, obtenu %v", err)
	}
}

func TestTransition_MonotonicBackfill(t *testing.T) {
	// PENDING -> DELIVERED direct : preparing/shipped/delivered tous posés
	f := newFixture(t, false)
	id := f.addOrder(basicOrder("FM-1001"))

	res, err := f.ctrl.Transition(context.Background(), id, TransitionRequest{Status: strPtr(models.OrderStatusDelivered)})
	if err != nil {
		t.Fatalf("erreur inattendue: %v", err)
	}

	o := res.Order
	if o.PreparingAt == nil || o.ShippedAt == nil || o.DeliveredAt == nil {
		t.Fatalf("horodatages manquants: preparing=%v shipped=%v delivered=%v", o.PreparingAt, o.ShippedAt, o.DeliveredAt)
	}
	if o.PreparingAt.After(*o.ShippedAt) || o.ShippedAt.After(*o.DeliveredAt) {
		t.Errorf("chaîne non monotone: %v %v %v", o.PreparingAt, o.ShippedAt, o.DeliveredAt)
	}
	if !o.PreparingAt.Equal(f.now) || !o.DeliveredAt.Equal(f.now) {
		t.Errorf("backfill attendu à now=%v", f.now)
	}
}

func TestTransition_NoBackfillOverwrite(t *testing.T) {
	f := newFixture(t, false)
	earlier := f.now.Add(-24 * time.Hour)
	o := basicOrder("FM-1002")
	o.Status = models.OrderStatusProcessing
	o.PreparingAt = &earlier
	id := f.addOrder(o)

	res, err := f.ctrl.Transition(context.Background(), id, TransitionRequest{Status: strPtr(models.OrderStatusShipped)})
	if err != nil {
		t.Fatalf("erreur inattendue: %v", err)
	}
	if !res.Order.PreparingAt.Equal(earlier) {
		t.Errorf("preparingAt déjà posé ne doit pas être écrasé par le backfill")
	}
	if !res.Order.ShippedAt.Equal(f.now) {
		t.Errorf("shippedAt attendu à now")
	}
}

func TestTransition_StockRestoration(t *testing.T) {
	// Scénarios A et B : restitution exactement-une-fois
	f := newFixture(t, false)
	prodA := gocql.TimeUUID()
	prodB := gocql.TimeUUID()
	o := basicOrder("FM-1001")
	o.Items = []models.OrderItem{
		{ProductID: prodA, Quantity: 3},
		{ProductID: prodB, Quantity: 1, VariantInfo: `{"variant_id":"var-V","name":"Siyah / XL"}`},
	}
	id := f.addOrder(o)

	res, err := f.ctrl.Transition(context.Background(), id, TransitionRequest{Status: strPtr(models.OrderStatusCancelled)})
	if err != nil {
		t.Fatalf("erreur inattendue: %v", err)
	}
	if !res.StockRestored {
		t.Error("StockRestored attendu")
	}
	if got := f.stock.products[prodA.String()]; got != 3 {
		t.Errorf("produit A: +3 attendu, obtenu %d", got)
	}
	if got := f.stock.products[prodB.String()]; got != 0 {
		t.Errorf("produit B ne doit pas être incrémenté (variante), obtenu %d", got)
	}
	if got := f.stock.variants["var-V"]; got != 1 {
		t.Errorf("variante V: +1 attendu, obtenu %d", got)
	}
	if res.Order.CancelledAt == nil {
		t.Error("cancelledAt attendu")
	}
	if len(f.store.history) != 1 || f.store.history[0].PreviousStatus != models.OrderStatusPending || f.store.history[0].Status != models.OrderStatusCancelled {
		t.Fatalf("journal inattendu: %+v", f.store.history)
	}

	// CANCELLED -> REFUNDED : pas de double restitution
	if _, err := f.ctrl.Transition(context.Background(), id, TransitionRequest{Status: strPtr(models.OrderStatusRefunded)}); err != nil {
		t.Fatalf("erreur inattendue: %v", err)
	}
	if got := f.stock.products[prodA.String()]; got != 3 {
		t.Errorf("double restitution détectée sur A: %d", got)
	}
	if got := f.stock.variants["var-V"]; got != 1 {
		t.Errorf("double restitution détectée sur V: %d", got)
	}
	if len(f.store.history) != 2 {
		t.Errorf("2 entrées de journal attendues, obtenu %d", len(f.store.history))
	}
}

func TestTransition_IdempotentNoOp(t *testing.T) {
	f := newFixture(t, false)
	id := f.addOrder(basicOrder("FM-1003"))

	res, err := f.ctrl.Transition(context.Background(), id, TransitionRequest{Status: strPtr(models.OrderStatusPending)})
	if err != nil {
		t.Fatalf("erreur inattendue: %v", err)
	}
	if res.StatusChanged {
		t.Error("statut identique: pas de changement attendu")
	}
	if len(f.store.history) != 0 {
		t.Errorf("pas d'entrée de journal attendue, obtenu %d", len(f.store.history))
	}
	if res.Order.PreparingAt != nil || res.Order.CancelledAt != nil {
		t.Error("aucun horodatage ne doit être posé")
	}
	if len(f.stock.products) != 0 || len(f.stock.variants) != 0 {
		t.Error("aucune mutation de stock attendue")
	}
	if len(f.notifier.statusChanged) != 0 {
		t.Error("aucune notification attendue")
	}
}

func TestTransition_HistoryAppendOnly(t *testing.T) {
	f := newFixture(t, false)
	id := f.addOrder(basicOrder("FM-1004"))

	sequence := []string{models.OrderStatusProcessing, models.OrderStatusShipped, models.OrderStatusDelivered}
	for _, s := range sequence {
		if _, err := f.ctrl.Transition(context.Background(), id, TransitionRequest{Status: strPtr(s)}); err != nil {
			t.Fatalf("transition vers %s: %v", s, err)
		}
	}

	if len(f.store.history) != len(sequence) {
		t.Fatalf("%d entrées attendues, obtenu %d", len(sequence), len(f.store.history))
	}
	previous := models.OrderStatusPending
	for i, entry := range f.store.history {
		if entry.Status != sequence[i] {
			t.Errorf("entrée %d: statut %s attendu, obtenu %s", i, sequence[i], entry.Status)
		}
		if entry.PreviousStatus != previous {
			t.Errorf("entrée %d: previousStatus %s attendu, obtenu %s", i, previous, entry.PreviousStatus)
		}
		previous = entry.Status
	}
}

func TestTransition_GatewayCancelSuccess(t *testing.T) {
	f := newFixture(t, true)
	f.gateway.cancelResult = &iyzico.Result{Status: iyzico.StatusSuccess}
	o := basicOrder("FM-1005")
	o.IyzicoPaymentID = "pay-1"
	o.IyzicoConversationID = "conv-1"
	id := f.addOrder(o)

	res, err := f.ctrl.Transition(context.Background(), id, TransitionRequest{Status: strPtr(models.OrderStatusCancelled)})
	if err != nil {
		t.Fatalf("erreur inattendue: %v", err)
	}
	if f.gateway.cancelCalls != 1 {
		t.Errorf("1 appel cancel attendu, obtenu %d", f.gateway.cancelCalls)
	}
	if len(f.gateway.refundCalls) != 0 {
		t.Error("pas de refund attendu après un cancel réussi")
	}
	if res.Order.PaymentStatus != models.PaymentStatusRefunded {
		t.Errorf("paymentStatus REFUNDED attendu, obtenu %s", res.Order.PaymentStatus)
	}
	if !res.Gateway.Succeeded || res.Gateway.Operation != "cancel" {
		t.Errorf("issue passerelle inattendue: %+v", res.Gateway)
	}
	if len(f.store.attempts) != 1 || !f.store.attempts[0].Success {
		t.Errorf("tentative passerelle attendue: %+v", f.store.attempts)
	}
}

func TestTransition_CancelFallbackToRefund(t *testing.T) {
	// refus métier du cancel -> refund par transaction
	f := newFixture(t, true)
	f.gateway.cancelResult = &iyzico.Result{Status: iyzico.StatusFailure, ErrorMessage: "Payment cannot be cancelled"}
	f.gateway.refundResult = &iyzico.Result{Status: iyzico.StatusSuccess}
	o := basicOrder("FM-1006")
	o.IyzicoPaymentID = "pay-2"
	o.PaymentTransactions = []models.PaymentTransaction{
		{PaymentTransactionID: "tx-1", PaidPrice: json.RawMessage(`"750.00"`)},
		{PaymentTransactionID: "tx-2", PaidPrice: json.RawMessage(`"750.00"`)},
	}
	id := f.addOrder(o)

	res, err := f.ctrl.Transition(context.Background(), id, TransitionRequest{Status: strPtr(models.OrderStatusCancelled)})
	if err != nil {
		t.Fatalf("erreur inattendue: %v", err)
	}
	if len(f.gateway.refundCalls) != 2 {
		t.Fatalf("2 refunds attendus, obtenu %d", len(f.gateway.refundCalls))
	}
	if res.Order.PaymentStatus != models.PaymentStatusRefunded {
		t.Errorf("paymentStatus REFUNDED attendu, obtenu %s", res.Order.PaymentStatus)
	}
	// 1 tentative cancel + 2 tentatives refund
	if len(f.store.attempts) != 3 {
		t.Errorf("3 tentatives tracées attendues, obtenu %d", len(f.store.attempts))
	}
}

func TestTransition_NoFallbackOnTransportError(t *testing.T) {
	// P6 : un cancel en erreur réseau n'empêche pas la transition, et ne
	// déclenche pas de refund en aveugle
	f := newFixture(t, true)
	f.gateway.cancelErr = errors.New("connexion refusée")
	o := basicOrder("FM-1007")
	o.IyzicoPaymentID = "pay-3"
	o.Items = []models.OrderItem{{ProductID: gocql.TimeUUID(), Quantity: 2}}
	o.PaymentTransactions = []models.PaymentTransaction{{PaymentTransactionID: "tx-1", PaidPrice: json.RawMessage(`"1500.00"`)}}
	id := f.addOrder(o)

	res, err := f.ctrl.Transition(context.Background(), id, TransitionRequest{Status: strPtr(models.OrderStatusCancelled)})
	if err != nil {
		t.Fatalf("l'échec passerelle ne doit pas faire échouer la transition: %v", err)
	}
	if len(f.gateway.refundCalls) != 0 {
		t.Error("pas de repli refund sur une erreur de transport")
	}
	if res.Order.Status != models.OrderStatusCancelled {
		t.Errorf("statut CANCELLED attendu, obtenu %s", res.Order.Status)
	}
	if len(res.Gateway.Errors) == 0 {
		t.Error("l'erreur passerelle doit être remontée dans le résultat")
	}

	persisted := f.store.orders[id]
	if persisted.Status != models.OrderStatusCancelled {
		t.Errorf("statut non persisté: %s", persisted.Status)
	}
	if res.StockRestored == false {
		t.Error("le stock doit être restitué malgré l'échec passerelle")
	}
}

func TestTransition_RefundedCallsRefundPerTransaction(t *testing.T) {
	f := newFixture(t, true)
	f.gateway.refundResult = &iyzico.Result{Status: iyzico.StatusSuccess}
	o := basicOrder("FM-1008")
	o.IyzicoPaymentID = "pay-4"
	o.PaymentTransactions = []models.PaymentTransaction{
		{PaymentTransactionID: "tx-a", PaidPrice: json.RawMessage(`"150000"`)}, // kuruş
		{PaymentTransactionID: "tx-b", Price: json.RawMessage(`"45,50"`)},
		{PaymentTransactionID: "tx-c", PaidPrice: json.RawMessage(`"n/a"`)}, // illisible, ignorée
	}
	id := f.addOrder(o)

	if _, err := f.ctrl.Transition(context.Background(), id, TransitionRequest{Status: strPtr(models.OrderStatusRefunded)}); err != nil {
		t.Fatalf("erreur inattendue: %v", err)
	}
	if f.gateway.cancelCalls != 0 {
		t.Error("REFUNDED ne passe pas par cancel")
	}
	if len(f.gateway.refundCalls) != 2 {
		t.Fatalf("2 refunds attendus (tx illisible ignorée), obtenu %d", len(f.gateway.refundCalls))
	}
	if f.gateway.refundCalls[0].Price != 1500.00 {
		t.Errorf("tx-a: 1500.00 attendu (normalisation kuruş), obtenu %v", f.gateway.refundCalls[0].Price)
	}
	if f.gateway.refundCalls[1].Price != 45.50 {
		t.Errorf("tx-b: 45.50 attendu, obtenu %v", f.gateway.refundCalls[1].Price)
	}
}

func TestTransition_GatewayDisabled(t *testing.T) {
	f := newFixture(t, false)
	o := basicOrder("FM-1009")
	o.IyzicoPaymentID = "pay-5"
	id := f.addOrder(o)

	res, err := f.ctrl.Transition(context.Background(), id, TransitionRequest{Status: strPtr(models.OrderStatusCancelled)})
	if err != nil {
		t.Fatalf("erreur inattendue: %v", err)
	}
	if f.gateway.cancelCalls != 0 || len(f.gateway.refundCalls) != 0 {
		t.Error("passerelle désactivée: aucun appel attendu")
	}
	if res.Gateway == nil || res.Gateway.Attempted || res.Gateway.SkippedReason == "" {
		t.Errorf("issue passerelle attendue marquée ignorée: %+v", res.Gateway)
	}
}

func TestTransition_PaymentPaid(t *testing.T) {
	// Scénario C : paiement confirmé sans toucher au statut
	f := newFixture(t, false)
	id := f.addOrder(basicOrder("FM-1010"))

	res, err := f.ctrl.Transition(context.Background(), id, TransitionRequest{PaymentStatus: strPtr(models.PaymentStatusPaid)})
	if err != nil {
		t.Fatalf("erreur inattendue: %v", err)
	}
	if res.Order.PaidAt == nil {
		t.Error("paidAt attendu")
	}
	if res.Order.Status != models.OrderStatusPending {
		t.Errorf("statut inchangé attendu, obtenu %s", res.Order.Status)
	}
	if len(f.notifier.paymentConfirmed) != 1 {
		t.Fatalf("1 notification paiement attendue, obtenu %d", len(f.notifier.paymentConfirmed))
	}
	if f.notifier.paymentConfirmed[0].Recipient != "musteri@example.com" {
		t.Errorf("destinataire inattendu: %s", f.notifier.paymentConfirmed[0].Recipient)
	}
	if len(f.notifier.statusChanged) != 0 {
		t.Error("pas de notification de statut attendue")
	}
}

func TestTransition_NotificationRecipientResolution(t *testing.T) {
	t.Run("email du compte lié", func(t *testing.T) {
		f := newFixture(t, false)
		f.store.userEmails["user-7"] = "hesap@example.com"
		o := basicOrder("FM-1011")
		o.UserID = "user-7"
		id := f.addOrder(o)

		if _, err := f.ctrl.Transition(context.Background(), id, TransitionRequest{Status: strPtr(models.OrderStatusShipped)}); err != nil {
			t.Fatalf("erreur inattendue: %v", err)
		}
		if len(f.notifier.statusChanged) != 1 || f.notifier.statusChanged[0].Recipient != "hesap@example.com" {
			t.Errorf("notification inattendue: %+v", f.notifier.statusChanged)
		}
	})

	t.Run("repli sur l'email de facturation pour un invité", func(t *testing.T) {
		f := newFixture(t, false)
		id := f.addOrder(basicOrder("FM-1012"))

		if _, err := f.ctrl.Transition(context.Background(), id, TransitionRequest{Status: strPtr(models.OrderStatusShipped)}); err != nil {
			t.Fatalf("erreur inattendue: %v", err)
		}
		if len(f.notifier.statusChanged) != 1 || f.notifier.statusChanged[0].Recipient != "musteri@example.com" {
			t.Errorf("notification inattendue: %+v", f.notifier.statusChanged)
		}
	})
}

func TestTransition_FieldOverwrites(t *testing.T) {
	f := newFixture(t, false)
	o := basicOrder("FM-1013")
	o.TrackingNumber = "TRK-OLD"
	o.CarrierName = "Yurtiçi"
	id := f.addOrder(o)

	// pointeur vers chaîne vide = écrasement volontaire
	res, err := f.ctrl.Transition(context.Background(), id, TransitionRequest{
		TrackingNumber: strPtr(""),
		AdminNote:      strPtr("colis perdu, recréer une expédition"),
	})
	if err != nil {
		t.Fatalf("erreur inattendue: %v", err)
	}
	if res.Order.TrackingNumber != "" {
		t.Errorf("trackingNumber doit être écrasé par la chaîne vide, obtenu %q", res.Order.TrackingNumber)
	}
	if res.Order.CarrierName != "Yurtiçi" {
		t.Errorf("carrierName omis ne doit pas changer, obtenu %q", res.Order.CarrierName)
	}
	if res.Order.AdminNote != "colis perdu, recréer une expédition" {
		t.Errorf("adminNote inattendue: %q", res.Order.AdminNote)
	}
}

func TestTransition_LockConflict(t *testing.T) {
	f := newFixture(t, false)
	f.ctrl.locks = &fakeLocker{err: ErrTransitionConflict}
	id := f.addOrder(basicOrder("FM-1014"))

	if _, err := f.ctrl.Transition(context.Background(), id, TransitionRequest{Status: strPtr(models.OrderStatusShipped)}); !errors.Is(err, ErrTransitionConflict) {
		t.Fatalf("ErrTransitionConflict attendu, obtenu %v", err)
	}
}

func TestTransition_LockUnavailableStillRuns(t *testing.T) {
	f := newFixture(t, false)
	f.ctrl.locks = &fakeLocker{err: errors.New("redis injoignable")}
	id := f.addOrder(basicOrder("FM-1015"))

	if _, err := f.ctrl.Transition(context.Background(), id, TransitionRequest{Status: strPtr(models.OrderStatusShipped)}); err != nil {
		t.Fatalf("un verrou indisponible ne doit pas bloquer: %v", err)
	}
}

func TestTransition_VersionConflict(t *testing.T) {
	f := newFixture(t, false)
	f.store.updateErr = ErrTransitionConflict
	id := f.addOrder(basicOrder("FM-1016"))

	if _, err := f.ctrl.Transition(context.Background(), id, TransitionRequest{Status: strPtr(models.OrderStatusShipped)}); !errors.Is(err, ErrTransitionConflict) {
		t.Fatalf("ErrTransitionConflict attendu, obtenu %v", err)
	}
}

func TestDelete(t *testing.T) {
	t.Run("restitue le stock avant suppression", func(t *testing.T) {
		f := newFixture(t, true)
		prod := gocql.TimeUUID()
		o := basicOrder("FM-1017")
		o.IyzicoPaymentID = "pay-9"
		o.Items = []models.OrderItem{{ProductID: prod, Quantity: 4}}
		id := f.addOrder(o)

		if err := f.ctrl.Delete(context.Background(), id); err != nil {
			t.Fatalf("erreur inattendue: %v", err)
		}
		if got := f.stock.products[prod.String()]; got != 4 {
			t.Errorf("+4 attendu, obtenu %d", got)
		}
		// purge administrative : jamais d'appel passerelle
		if f.gateway.cancelCalls != 0 || len(f.gateway.refundCalls) != 0 {
			t.Error("aucun appel passerelle attendu lors d'une suppression")
		}
		if len(f.store.deleted) != 1 {
			t.Error("commande non supprimée")
		}
	})

	t.Run("pas de restitution si déjà annulée", func(t *testing.T) {
		f := newFixture(t, false)
		prod := gocql.TimeUUID()
		o := basicOrder("FM-1018")
		o.Status = models.OrderStatusCancelled
		o.Items = []models.OrderItem{{ProductID: prod, Quantity: 2}}
		id := f.addOrder(o)

		if err := f.ctrl.Delete(context.Background(), id); err != nil {
			t.Fatalf("erreur inattendue: %v", err)
		}
		if got := f.stock.products[prod.String()]; got != 0 {
			t.Errorf("pas de restitution attendue, obtenu %d", got)
		}
	})

	t.Run("introuvable", func(t *testing.T) {
		f := newFixture(t, false)
		if err := f.ctrl.Delete(context.Background(), gocql.TimeUUID()); !errors.Is(err, ErrOrderNotFound) {
			t.Fatalf("ErrOrderNotFound attendu, obtenu %v", err)
		}
	})
}
