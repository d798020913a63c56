package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/MorseWayne/planet_shoes/internal/config"
	"github.com/MorseWayne/planet_shoes/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.UpstreamConfig{BaseURL: srv.URL + "/api/", Timeout: 2 * time.Second}, zap.NewNop())
}

func TestLookupModel_DecodesPermissively(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/Modelos" || r.URL.Query().Get("estilo") != "3390" {
			t.Errorf("unexpected request: %s", r.URL.String())
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success": true, "data": [
			{"id": 101, "estilo": "3390", "marca": "Nike", "color": "Negro", "material": "Piel",
			 "descripcion": "Tenis", "foto": "C:\\fotos\\3390.jpg", "genero": "Dama",
			 "talla": "185", "rango": "Adulto", "existencia": 4, "precio1": "499.90"},
			{"id": "A-7", "marca": "", "color": null, "talla": "grande", "existencia": -2, "precio1": -10},
			{"id": 103, "marca": "Nike", "color": "Negro", "talla": 240.0, "existencia": "3", "precio1": 650}
		]}`))
	})

	records, err := client.LookupModel(context.Background(), "3390")
	if err != nil {
		t.Fatalf("LookupModel() error = %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}

	first := records[0]
	if first.ArticleID != "101" || first.SizeRaw != 185 || first.Stock != 4 || !first.UnitPrice.Equal(decimal.RequireFromString("499.90")) {
		t.Errorf("unexpected first record: %+v", first)
	}
	if first.PhotoPath != `C:\fotos\3390.jpg` {
		t.Errorf("photo path = %q", first.PhotoPath)
	}

	second := records[1]
	if second.Brand != domain.DefaultBrand || second.Color != domain.DefaultColor || second.Material != domain.DefaultMaterial {
		t.Errorf("missing strings should take defaults: %+v", second)
	}
	if second.SizeRaw != 0 || second.Stock != 0 || !second.UnitPrice.IsZero() || second.Range != domain.DefaultRange {
		t.Errorf("malformed numerics should be zero: %+v", second)
	}
	if second.Style != "3390" {
		t.Errorf("style should default to the queried one, got %q", second.Style)
	}

	third := records[2]
	if third.SizeRaw != 240 || third.Stock != 3 {
		t.Errorf("unexpected third record: %+v", third)
	}
}

func TestLookupModel_NotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success": false, "message": "Modelo no encontrado"}`))
	})

	records, err := client.LookupModel(context.Background(), "0000")
	if err != nil {
		t.Fatalf("LookupModel() error = %v", err)
	}
	if records == nil || len(records) != 0 {
		t.Errorf("expected empty slice, got %v", records)
	}
}

func TestLookupModel_NetworkFailure(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}},
		{"invalid body", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<html>maintenance</html>`))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, tt.handler)
			if _, err := client.LookupModel(context.Background(), "3390"); !errors.Is(err, ErrNetwork) {
				t.Errorf("expected ErrNetwork, got %v", err)
			}
		})
	}
}

func TestLookupModel_Unreachable(t *testing.T) {
	client := NewClient(config.UpstreamConfig{BaseURL: "http://127.0.0.1:1/api", Timeout: time.Second}, zap.NewNop())
	if _, err := client.LookupModel(context.Background(), "3390"); !errors.Is(err, ErrNetwork) {
		t.Errorf("expected ErrNetwork, got %v", err)
	}
}

func TestSubmitOrder(t *testing.T) {
	var got map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/Pedidos" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		_, _ = w.Write([]byte(`{"success": true, "data": {"id": 5521}, "message": "Pedido registrado"}`))
	})

	res, err := client.SubmitOrder(context.Background(), domain.OrderRequest{
		Article:  "101",
		Quantity: 2,
		Price:    decimal.RequireFromString("499.9"),
		User:     "ana@planet.mx",
	})
	if err != nil {
		t.Fatalf("SubmitOrder() error = %v", err)
	}
	if res.ID != "5521" || res.Message != "Pedido registrado" {
		t.Errorf("unexpected result: %+v", res)
	}
	if got["articulo"] != "101" || got["cantidad"] != float64(2) || got["precio"] != 499.9 || got["usuario"] != "ana@planet.mx" {
		t.Errorf("unexpected payload: %v", got)
	}
}

func TestSubmitOrder_Rejected(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"success false", http.StatusOK, `{"success": false, "message": "Sin existencia"}`, "Sin existencia"},
		{"success false without message", http.StatusOK, `{"success": false}`, DefaultRejectMessage},
		{"bad request with message", http.StatusBadRequest, `{"success": false, "message": "Cantidad inválida"}`, "Cantidad inválida"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := client.SubmitOrder(context.Background(), domain.OrderRequest{Article: "1", Quantity: 1})
			var rejected *OrderRejectedError
			if !errors.As(err, &rejected) {
				t.Fatalf("expected OrderRejectedError, got %v", err)
			}
			if rejected.Message != tt.wantMsg || !errors.Is(err, ErrOrderRejected) {
				t.Errorf("message = %q, want %q", rejected.Message, tt.wantMsg)
			}
		})
	}
}

func TestSubmitOrder_NetworkFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	if _, err := client.SubmitOrder(context.Background(), domain.OrderRequest{Article: "1", Quantity: 1}); !errors.Is(err, ErrNetwork) {
		t.Errorf("expected ErrNetwork, got %v", err)
	}
}

func TestListOrders(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success": true, "data": [
			{"articulo": "101", "modeloDescripcion": "MOD. 3390", "marca": "Nike", "color": "Negro",
			 "talla": "250", "foto": "/img/3390.jpg", "surtido": 2, "porSurtir": "1",
			 "vendedor": {"id": 7, "nombre": "Luis"}},
			{"articulo": "102", "talla": 260, "surtido": 0, "porSurtir": 3}
		]}`))
	})

	orders, err := client.ListOrders(context.Background())
	if err != nil {
		t.Fatalf("ListOrders() error = %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(orders))
	}
	if orders[0].Vendor.ID != "7" || orders[0].Vendor.Name != "Luis" || orders[0].Pending != 1 || orders[0].SizeRaw != 250 {
		t.Errorf("unexpected first order: %+v", orders[0])
	}
	if orders[1].VendorID() != domain.DefaultVendorID || orders[1].Brand != domain.DefaultBrand {
		t.Errorf("unexpected defaults: %+v", orders[1])
	}
}

func TestBuildImageURL(t *testing.T) {
	base := "https://systemweb.ddns.net/planet-shoes/Fotos/"
	tests := []struct {
		path string
		want string
	}{
		{`C:\\fotos\\modelos\\3390.jpg`, base + "3390.jpg"},
		{`C:\fotos\3390.jpg`, base + "3390.jpg"},
		{"/img/catalogo/5018.png", base + "5018.png"},
		{"5021.jpg", base + "5021.jpg"},
		{"", ""},
		{"fotos/", ""},
	}

	for _, tt := range tests {
		if got := BuildImageURL(base, tt.path); got != tt.want {
			t.Errorf("BuildImageURL(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
	if got := BuildImageURL("https://cdn.test/fotos", "a.jpg"); got != "https://cdn.test/fotos/a.jpg" {
		t.Errorf("base without trailing slash: %q", got)
	}
}
