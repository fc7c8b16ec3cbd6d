package orders

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/quickbite-backend/api/middleware"
	internalorders "github.com/angelmondragon/quickbite-backend/internal/orders"
	"github.com/angelmondragon/quickbite-backend/pkg/db/models"
	"github.com/angelmondragon/quickbite-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/quickbite-backend/pkg/errors"
)

type stubOrdersService struct {
	order *models.Order
	err   error

	create   func(input internalorders.CreateOrderInput)
	update   func(input internalorders.UpdateStatusInput)
	cancel   func(input internalorders.CancelInput)
	get      func(id uuid.UUID, actor internalorders.Actor)
	discount func(id uuid.UUID, amount decimal.Decimal)
	refund   func(reason string)
}

func (s *stubOrdersService) CreateOrder(ctx context.Context, input internalorders.CreateOrderInput) (*models.Order, error) {
	if s.create != nil {
		s.create(input)
	}
	return s.order, s.err
}

func (s *stubOrdersService) UpdateSubOrderStatus(ctx context.Context, input internalorders.UpdateStatusInput) (*models.Order, error) {
	if s.update != nil {
		s.update(input)
	}
	return s.order, s.err
}

func (s *stubOrdersService) CancelOrder(ctx context.Context, input internalorders.CancelInput) (*models.Order, error) {
	if s.cancel != nil {
		s.cancel(input)
	}
	return s.order, s.err
}

func (s *stubOrdersService) Get(ctx context.Context, orderID uuid.UUID, actor internalorders.Actor) (*models.Order, error) {
	if s.get != nil {
		s.get(orderID, actor)
	}
	return s.order, s.err
}

func (s *stubOrdersService) GetByNumber(ctx context.Context, number string, actor internalorders.Actor) (*models.Order, error) {
	return s.order, s.err
}

func (s *stubOrdersService) ApplyDiscount(ctx context.Context, orderID uuid.UUID, amount decimal.Decimal, actor internalorders.Actor) (*models.Order, error) {
	if s.discount != nil {
		s.discount(orderID, amount)
	}
	return s.order, s.err
}

func (s *stubOrdersService) MarkPaid(ctx context.Context, orderID uuid.UUID, actor internalorders.Actor) (*models.Order, error) {
	return s.order, s.err
}

func (s *stubOrdersService) Refund(ctx context.Context, orderID uuid.UUID, actor internalorders.Actor, reason string) (*models.Order, error) {
	if s.refund != nil {
		s.refund(reason)
	}
	return s.order, s.err
}

func (s *stubOrdersService) ExpirePending(ctx context.Context, cutoff time.Time, limit int) (int, error) {
	return 0, nil
}

func sampleOrder() *models.Order {
	partnerID := uuid.New()
	return &models.Order{
		ID:            uuid.New(),
		OrderNumber:   "QB-20240501-000001",
		CustomerID:    uuid.New(),
		CustomerName:  "Ana",
		PaymentMethod: enums.PaymentMethodCard,
		PaymentStatus: enums.PaymentStatusPending,
		OverallStatus: enums.OrderStatusPending,
		Subtotal:      decimal.RequireFromString("35.00"),
		TotalPrice:    decimal.RequireFromString("43.28"),
		SubOrders: []models.PartnerSubOrder{{
			PartnerID:   partnerID,
			PartnerName: "Tacos",
			Status:      enums.OrderStatusPending,
			Items: []models.OrderLineItem{{
				ItemID:    uuid.New(),
				Name:      "Al pastor",
				Quantity:  2,
				UnitPrice: decimal.RequireFromString("10.00"),
				LineTotal: decimal.RequireFromString("20.00"),
			}},
		}},
		History: []models.OrderStatusEntry{{Seq: 1, Status: enums.OrderStatusPending, ActorRole: enums.ActorRoleCustomer}},
	}
}

func authedRequest(method, target, body string, role enums.ActorRole, partnerID *uuid.UUID, params map[string]string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rc := chi.NewRouteContext()
	for k, v := range params {
		rc.URLParams.Add(k, v)
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rc)
	ctx = middleware.WithUserID(ctx, uuid.NewString())
	ctx = middleware.WithRole(ctx, string(role))
	if partnerID != nil {
		ctx = middleware.WithPartnerID(ctx, partnerID.String())
	}
	return req.WithContext(ctx)
}

const createBody = `{
	"session_id": "sess-1",
	"customer_name": "  Ana  ",
	"address": {"line1": "Calle Mayor 1", "city": "Madrid", "postal_code": "28013"},
	"location": {"lat": 40.4168, "lng": -3.7038},
	"payment_method": "card"
}`

func TestCreateOrderSuccess(t *testing.T) {
	var got internalorders.CreateOrderInput
	svc := &stubOrdersService{order: sampleOrder(), create: func(input internalorders.CreateOrderInput) { got = input }}

	req := authedRequest(http.MethodPost, "/api/v1/orders", createBody, enums.ActorRoleCustomer, nil, nil)
	resp := httptest.NewRecorder()
	CreateOrder(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if got.SessionID != "sess-1" || got.Customer.Name != "Ana" {
		t.Fatalf("unexpected input %+v", got)
	}
	if got.Customer.ID == uuid.Nil {
		t.Fatalf("customer id should come from the token")
	}
	if got.PaymentMethod != enums.PaymentMethodCard || got.Address.PostalCode != "28013" {
		t.Fatalf("unexpected input %+v", got)
	}

	var envelope struct {
		Data struct {
			OrderNumber string `json:"order_number"`
			SubOrders   []struct {
				Items []struct {
					Name string `json:"name"`
				} `json:"items"`
			} `json:"sub_orders"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data.OrderNumber != "QB-20240501-000001" || len(envelope.Data.SubOrders) != 1 {
		t.Fatalf("unexpected payload %+v", envelope.Data)
	}
}

func TestCreateOrderRejectsUnknownPaymentMethod(t *testing.T) {
	svc := &stubOrdersService{order: sampleOrder()}
	body := strings.Replace(createBody, `"card"`, `"barter"`, 1)

	req := authedRequest(http.MethodPost, "/api/v1/orders", body, enums.ActorRoleCustomer, nil, nil)
	resp := httptest.NewRecorder()
	CreateOrder(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
}

func TestCreateOrderSurfacesDriftDetails(t *testing.T) {
	svc := &stubOrdersService{err: pkgerrors.New(pkgerrors.CodeDrift, "cart is out of date").
		WithDetails(map[string]any{"mismatches": []internalorders.PriceMismatch{{Name: "Al pastor"}}})}

	req := authedRequest(http.MethodPost, "/api/v1/orders", createBody, enums.ActorRoleCustomer, nil, nil)
	resp := httptest.NewRecorder()
	CreateOrder(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "mismatches") {
		t.Fatalf("expected mismatch details, got %s", resp.Body.String())
	}
}

func TestCreateOrderRequiresPrincipal(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(createBody))
	resp := httptest.NewRecorder()
	CreateOrder(&stubOrdersService{}, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestDetailPassesActor(t *testing.T) {
	order := sampleOrder()
	var gotRole enums.ActorRole
	svc := &stubOrdersService{order: order, get: func(id uuid.UUID, actor internalorders.Actor) {
		if id != order.ID {
			t.Fatalf("unexpected order id %s", id)
		}
		gotRole = actor.Role
	}}

	req := authedRequest(http.MethodGet, "/api/v1/orders/"+order.ID.String(), "", enums.ActorRoleCourier, nil, map[string]string{"orderId": order.ID.String()})
	resp := httptest.NewRecorder()
	Detail(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if gotRole != enums.ActorRoleCourier {
		t.Fatalf("unexpected role %s", gotRole)
	}
}

func TestDetailInvalidOrderID(t *testing.T) {
	req := authedRequest(http.MethodGet, "/api/v1/orders/nope", "", enums.ActorRoleCustomer, nil, map[string]string{"orderId": "nope"})
	resp := httptest.NewRecorder()
	Detail(&stubOrdersService{}, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
}

func TestCancelOrderPassesReason(t *testing.T) {
	order := sampleOrder()
	var got internalorders.CancelInput
	svc := &stubOrdersService{order: order, cancel: func(input internalorders.CancelInput) { got = input }}

	req := authedRequest(http.MethodPost, "/api/v1/orders/"+order.ID.String()+"/cancel", `{"reason":"changed my mind"}`, enums.ActorRoleCustomer, nil, map[string]string{"orderId": order.ID.String()})
	resp := httptest.NewRecorder()
	CancelOrder(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if got.OrderID != order.ID || got.Reason != "changed my mind" || got.Actor.Role != enums.ActorRoleCustomer {
		t.Fatalf("unexpected cancel input %+v", got)
	}
}

func TestCancelOrderRequiresReason(t *testing.T) {
	order := sampleOrder()
	req := authedRequest(http.MethodPost, "/api/v1/orders/"+order.ID.String()+"/cancel", `{}`, enums.ActorRoleCustomer, nil, map[string]string{"orderId": order.ID.String()})
	resp := httptest.NewRecorder()
	CancelOrder(&stubOrdersService{order: order}, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
}

func TestUpdateSubOrderStatusPartnerToken(t *testing.T) {
	order := sampleOrder()
	partnerID := order.SubOrders[0].PartnerID
	var got internalorders.UpdateStatusInput
	svc := &stubOrdersService{order: order, update: func(input internalorders.UpdateStatusInput) { got = input }}

	params := map[string]string{"orderId": order.ID.String(), "partnerId": partnerID.String()}
	req := authedRequest(http.MethodPost, "/status", `{"status":"accepted","estimated_prep_minutes":20}`, enums.ActorRolePartner, &partnerID, params)
	resp := httptest.NewRecorder()
	UpdateSubOrderStatus(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if got.Status != enums.OrderStatusAccepted || got.PartnerID != partnerID {
		t.Fatalf("unexpected input %+v", got)
	}
	if got.Actor.PartnerID == nil || *got.Actor.PartnerID != partnerID {
		t.Fatalf("expected partner actor, got %+v", got.Actor)
	}
	if got.EstimatedPrepMinutes == nil || *got.EstimatedPrepMinutes != 20 {
		t.Fatalf("expected prep minutes 20")
	}
}

func TestUpdateSubOrderStatusRejectsUnknownStatus(t *testing.T) {
	order := sampleOrder()
	partnerID := order.SubOrders[0].PartnerID
	params := map[string]string{"orderId": order.ID.String(), "partnerId": partnerID.String()}
	req := authedRequest(http.MethodPost, "/status", `{"status":"teleported"}`, enums.ActorRolePartner, &partnerID, params)
	resp := httptest.NewRecorder()
	UpdateSubOrderStatus(&stubOrdersService{order: order}, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
}

func TestUpdateSubOrderStatusIllegalTransition(t *testing.T) {
	order := sampleOrder()
	partnerID := order.SubOrders[0].PartnerID
	svc := &stubOrdersService{err: pkgerrors.New(pkgerrors.CodeIllegalTransition, "cannot move pending to ready")}
	params := map[string]string{"orderId": order.ID.String(), "partnerId": partnerID.String()}
	req := authedRequest(http.MethodPost, "/status", `{"status":"ready"}`, enums.ActorRoleAdmin, nil, params)
	resp := httptest.NewRecorder()
	UpdateSubOrderStatus(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
}

func TestAdminApplyDiscountDecodesAmount(t *testing.T) {
	order := sampleOrder()
	var gotAmount decimal.Decimal
	svc := &stubOrdersService{order: order, discount: func(id uuid.UUID, amount decimal.Decimal) { gotAmount = amount }}

	req := authedRequest(http.MethodPost, "/discount", `{"amount":"5.00"}`, enums.ActorRoleAdmin, nil, map[string]string{"orderId": order.ID.String()})
	resp := httptest.NewRecorder()
	AdminApplyDiscount(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if gotAmount.StringFixed(2) != "5.00" {
		t.Fatalf("unexpected amount %s", gotAmount)
	}
}

func TestAdminRefundRequiresReason(t *testing.T) {
	order := sampleOrder()
	called := false
	svc := &stubOrdersService{order: order, refund: func(string) { called = true }}

	req := authedRequest(http.MethodPost, "/refund", `{"reason":""}`, enums.ActorRoleAdmin, nil, map[string]string{"orderId": order.ID.String()})
	resp := httptest.NewRecorder()
	AdminRefund(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
	if called {
		t.Fatalf("service should not run without a reason")
	}
}

func TestAdminMarkPaid(t *testing.T) {
	order := sampleOrder()
	order.PaymentStatus = enums.PaymentStatusPaid
	req := authedRequest(http.MethodPost, "/paid", "", enums.ActorRoleAdmin, nil, map[string]string{"orderId": order.ID.String()})
	resp := httptest.NewRecorder()
	AdminMarkPaid(&stubOrdersService{order: order}, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), `"payment_status":"paid"`) {
		t.Fatalf("expected paid status in body, got %s", resp.Body.String())
	}
}
