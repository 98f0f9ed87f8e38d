package adapthttp

import (
	"net/http"

	"mealprice/internal/app"
	"mealprice/internal/domain"
)

type unitInfo struct {
	Unit   domain.Unit   `json:"unit"`
	Family domain.Family `json:"family"`
}

func (s *Server) handleUnits(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	units := domain.Units()
	out := make([]unitInfo, 0, len(units))
	for _, u := range units {
		out = append(out, unitInfo{Unit: u, Family: u.Family()})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"units":       out,
		"conversions": s.pricing.Table().Pairs(),
	})
}

func (s *Server) handleFoodItems(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	switch r.Method {
	case http.MethodGet:
		items, err := s.foods.List(r.Context(), user.ID, r.URL.Query().Get("q"))
		if err != nil {
			writeAppError(w, err)
			return
		}
		if items == nil {
			items = []domain.FoodItem{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})
	case http.MethodPost:
		var req struct {
			Name string `json:"name"`
		}
		if err := parseJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		item, err := s.foods.Create(r.Context(), user.ID, req.Name)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, item)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

type foodItemDetail struct {
	domain.FoodItem
	Price     string            `json:"price"`
	Purchases []domain.Purchase `json:"purchases"`
	Meals     []domain.Meal     `json:"meals"`
}

func (s *Server) handleFoodItem(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	id, err := pathID(r)
	if err != nil {
		writeAppError(w, err)
		return
	}

	switch r.Method {
	case http.MethodGet:
		item, err := s.foods.Get(r.Context(), user.ID, id)
		if err != nil {
			writeAppError(w, err)
			return
		}
		quote, err := s.pricing.FoodItemPrice(r.Context(), item, app.PriceQuery{})
		if err != nil {
			writeAppError(w, err)
			return
		}
		price, err := app.FormatQuote(quote, app.FormatPerUnit)
		if err != nil {
			writeAppError(w, err)
			return
		}
		purchases, err := s.purchases.ListForFoodItem(r.Context(), user.ID, id)
		if err != nil {
			writeAppError(w, err)
			return
		}
		meals, err := s.foods.Meals(r.Context(), user.ID, id)
		if err != nil {
			writeAppError(w, err)
			return
		}
		if purchases == nil {
			purchases = []domain.Purchase{}
		}
		if meals == nil {
			meals = []domain.Meal{}
		}
		writeJSON(w, http.StatusOK, foodItemDetail{FoodItem: *item, Price: price, Purchases: purchases, Meals: meals})
	case http.MethodPatch, http.MethodPut:
		var req struct {
			Name string `json:"name"`
		}
		if err := parseJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		item, err := s.foods.Rename(r.Context(), user.ID, id, req.Name)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, item)
	case http.MethodDelete:
		if err := s.foods.Delete(r.Context(), user.ID, id); err != nil {
			writeAppError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleFoodItemPrice(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	user := userFrom(r.Context())
	id, err := pathID(r)
	if err != nil {
		writeAppError(w, err)
		return
	}

	var q app.PriceQuery
	if q.Quantity, err = decimalQuery(r, "quantity"); err != nil {
		writeAppError(w, err)
		return
	}
	if q.Unit, err = unitQuery(r); err != nil {
		writeAppError(w, err)
		return
	}
	if q.Currency, err = currencyQuery(r); err != nil {
		writeAppError(w, err)
		return
	}
	format, err := app.ParsePriceFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeAppError(w, err)
		return
	}

	item, err := s.foods.Get(r.Context(), user.ID, id)
	if err != nil {
		writeAppError(w, err)
		return
	}
	quote, err := s.pricing.FoodItemPrice(r.Context(), item, q)
	if err != nil {
		writeAppError(w, err)
		return
	}
	text, err := app.FormatQuote(quote, format)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"foodItemId": item.ID,
		"price":      text,
		"quote":      quote,
	})
}
