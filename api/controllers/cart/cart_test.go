package cart

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	cartsvc "github.com/angelmondragon/quickbite-backend/internal/cart"
	"github.com/angelmondragon/quickbite-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/quickbite-backend/pkg/errors"
	"github.com/angelmondragon/quickbite-backend/pkg/types"
)

type stubCartService struct {
	session     *models.CartSession
	err         error
	validation  *cartsvc.ValidationResult
	lastSession string
	lastAdd     cartsvc.AddItemInput
	lastUpdate  cartsvc.UpdateItemInput
	lastLine    uuid.UUID
	lastPostal  string
}

func (s *stubCartService) Get(ctx context.Context, sessionID string) (*models.CartSession, error) {
	s.lastSession = sessionID
	return s.session, s.err
}

func (s *stubCartService) AddItem(ctx context.Context, sessionID string, input cartsvc.AddItemInput) (*models.CartSession, error) {
	s.lastSession = sessionID
	s.lastAdd = input
	return s.session, s.err
}

func (s *stubCartService) UpdateItem(ctx context.Context, sessionID string, lineItemID uuid.UUID, input cartsvc.UpdateItemInput) (*models.CartSession, error) {
	s.lastSession = sessionID
	s.lastLine = lineItemID
	s.lastUpdate = input
	return s.session, s.err
}

func (s *stubCartService) RemoveItem(ctx context.Context, sessionID string, lineItemID uuid.UUID) (*models.CartSession, error) {
	s.lastSession = sessionID
	s.lastLine = lineItemID
	return s.session, s.err
}

func (s *stubCartService) Clear(ctx context.Context, sessionID string) error {
	s.lastSession = sessionID
	return s.err
}

func (s *stubCartService) QuoteDelivery(ctx context.Context, sessionID, postalCode string) (*models.CartSession, error) {
	s.lastSession = sessionID
	s.lastPostal = postalCode
	return s.session, s.err
}

func (s *stubCartService) Validate(ctx context.Context, sessionID string) (*cartsvc.ValidationResult, error) {
	s.lastSession = sessionID
	return s.validation, s.err
}

func withURLParams(req *http.Request, params map[string]string) *http.Request {
	rc := chi.NewRouteContext()
	for k, v := range params {
		rc.URLParams.Add(k, v)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
}

func sampleSession() *models.CartSession {
	return &models.CartSession{
		SessionID: "sess-1",
		PartnerCarts: types.PartnerCarts{{
			PartnerID:   uuid.New(),
			PartnerName: "Tacos",
			Subtotal:    decimal.RequireFromString("20.00"),
			Items: []types.CartLineItem{{
				ID:        uuid.New(),
				ItemID:    uuid.New(),
				Name:      "Al pastor",
				Quantity:  2,
				UnitPrice: decimal.RequireFromString("10.00"),
				LineTotal: decimal.RequireFromString("20.00"),
			}},
		}},
		ItemsTotal: decimal.RequireFromString("20.00"),
		GrandTotal: decimal.RequireFromString("20.00"),
	}
}

func TestCartFetchSuccess(t *testing.T) {
	svc := &stubCartService{session: sampleSession()}
	handler := CartFetch(svc, nil)

	req := withURLParams(httptest.NewRequest(http.MethodGet, "/api/v1/carts/sess-1", nil), map[string]string{"sessionId": "sess-1"})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data struct {
			SessionID    string          `json:"session_id"`
			GrandTotal   decimal.Decimal `json:"grand_total"`
			PartnerCarts []struct {
				PartnerName string `json:"partner_name"`
			} `json:"partner_carts"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.SessionID != "sess-1" || envelope.Data.GrandTotal.StringFixed(2) != "20.00" {
		t.Fatalf("unexpected payload %+v", envelope.Data)
	}
	if len(envelope.Data.PartnerCarts) != 1 || envelope.Data.PartnerCarts[0].PartnerName != "Tacos" {
		t.Fatalf("unexpected partner carts %+v", envelope.Data.PartnerCarts)
	}
}

func TestCartFetchNotFound(t *testing.T) {
	handler := CartFetch(&stubCartService{err: pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")}, nil)

	req := withURLParams(httptest.NewRequest(http.MethodGet, "/api/v1/carts/missing", nil), map[string]string{"sessionId": "missing"})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestCartAddItemDecodesBody(t *testing.T) {
	svc := &stubCartService{session: sampleSession()}
	handler := CartAddItem(svc, nil)
	itemID := uuid.New()

	body := `{"item_id":"` + itemID.String() + `","quantity":2,"notes":"  extra salsa  "}`
	req := withURLParams(httptest.NewRequest(http.MethodPost, "/api/v1/carts/sess-1/items", strings.NewReader(body)), map[string]string{"sessionId": "sess-1"})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.lastAdd.ItemID != itemID || svc.lastAdd.Quantity != 2 {
		t.Fatalf("unexpected input %+v", svc.lastAdd)
	}
	if svc.lastAdd.Notes == nil || *svc.lastAdd.Notes != "extra salsa" {
		t.Fatalf("expected trimmed notes, got %v", svc.lastAdd.Notes)
	}
}

func TestCartAddItemRejectsZeroQuantity(t *testing.T) {
	svc := &stubCartService{session: sampleSession()}
	handler := CartAddItem(svc, nil)

	body := `{"item_id":"` + uuid.NewString() + `","quantity":0}`
	req := withURLParams(httptest.NewRequest(http.MethodPost, "/api/v1/carts/sess-1/items", strings.NewReader(body)), map[string]string{"sessionId": "sess-1"})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
	if svc.lastSession != "" {
		t.Fatalf("service should not be called on invalid body")
	}
}

func TestCartUpdateItemTracksNotesPresence(t *testing.T) {
	lineID := uuid.New()
	tests := []struct {
		name      string
		body      string
		wantValid bool
		wantNil   bool
	}{
		{"absent", `{"quantity":3}`, false, true},
		{"null", `{"quantity":3,"notes":null}`, true, true},
		{"value", `{"quantity":3,"notes":"ring bell"}`, true, false},
	}

	for _, tt := range tests {
		svc := &stubCartService{session: sampleSession()}
		handler := CartUpdateItem(svc, nil)
		req := httptest.NewRequest(http.MethodPatch, "/api/v1/carts/sess-1/items/"+lineID.String(), strings.NewReader(tt.body))
		req = withURLParams(req, map[string]string{"sessionId": "sess-1", "lineItemId": lineID.String()})
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)

		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", tt.name, resp.Code)
		}
		if svc.lastLine != lineID || svc.lastUpdate.Quantity != 3 {
			t.Fatalf("%s: unexpected input %+v", tt.name, svc.lastUpdate)
		}
		if svc.lastUpdate.Notes.Valid != tt.wantValid || (svc.lastUpdate.Notes.Value == nil) != tt.wantNil {
			t.Fatalf("%s: unexpected notes %+v", tt.name, svc.lastUpdate.Notes)
		}
	}
}

func TestCartRemoveItemRejectsBadLineID(t *testing.T) {
	handler := CartRemoveItem(&stubCartService{session: sampleSession()}, nil)
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/carts/sess-1/items/nope", nil)
	req = withURLParams(req, map[string]string{"sessionId": "sess-1", "lineItemId": "nope"})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
}

func TestCartQuotePassesPostalCode(t *testing.T) {
	svc := &stubCartService{session: sampleSession()}
	handler := CartQuote(svc, nil)

	req := withURLParams(httptest.NewRequest(http.MethodPost, "/api/v1/carts/sess-1/quote", strings.NewReader(`{"postal_code":"28013"}`)), map[string]string{"sessionId": "sess-1"})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.lastPostal != "28013" {
		t.Fatalf("unexpected postal code %q", svc.lastPostal)
	}
}

func TestCartValidateReturnsResult(t *testing.T) {
	svc := &stubCartService{validation: &cartsvc.ValidationResult{Valid: false, Errors: []string{"cart is empty"}, UnavailableItems: []cartsvc.UnavailableItem{}}}
	handler := CartValidate(svc, nil)

	req := withURLParams(httptest.NewRequest(http.MethodGet, "/api/v1/carts/sess-1/validation", nil), map[string]string{"sessionId": "sess-1"})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data cartsvc.ValidationResult `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data.Valid || len(envelope.Data.Errors) != 1 {
		t.Fatalf("unexpected validation %+v", envelope.Data)
	}
}
