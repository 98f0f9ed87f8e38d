package adapthttp

import (
	"net/http"

	"github.com/shopspring/decimal"

	"mealprice/internal/app"
	"mealprice/internal/domain"
)

type purchaseRequest struct {
	FoodItemID   int64           `json:"foodItemId"`
	FoodItemName string          `json:"foodItemName"`
	Price        decimal.Decimal `json:"price"`
	Currency     domain.Currency `json:"currency"`
	Quantity     decimal.Decimal `json:"quantity"`
	Unit         domain.Unit     `json:"unit"`
	Location     string          `json:"location"`
	Date         string          `json:"date"`
}

func (s *Server) handlePurchases(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	switch r.Method {
	case http.MethodGet:
		purchases, err := s.purchases.ListForUser(r.Context(), user.ID)
		if err != nil {
			writeAppError(w, err)
			return
		}
		if purchases == nil {
			purchases = []domain.Purchase{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"purchases": purchases})
	case http.MethodPost:
		var req purchaseRequest
		if err := parseJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		date, err := parseDate("date", req.Date)
		if err != nil {
			writeAppError(w, err)
			return
		}
		p, err := s.purchases.Record(r.Context(), user.ID, app.PurchaseInput{
			FoodItem: domain.FoodItemRef{ID: req.FoodItemID, Name: req.FoodItemName},
			Price:    req.Price,
			Currency: req.Currency,
			Quantity: req.Quantity,
			Unit:     req.Unit,
			Location: req.Location,
			Date:     date,
		})
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, p)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handlePurchase(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	id, err := pathID(r)
	if err != nil {
		writeAppError(w, err)
		return
	}

	switch r.Method {
	case http.MethodGet:
		p, err := s.purchases.Get(r.Context(), user.ID, id)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	case http.MethodDelete:
		if err := s.purchases.Delete(r.Context(), user.ID, id); err != nil {
			writeAppError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}
