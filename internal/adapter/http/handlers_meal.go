package adapthttp

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"mealprice/internal/app"
	"mealprice/internal/domain"
)

type ingredientRequest struct {
	FoodItemID   int64           `json:"foodItemId"`
	FoodItemName string          `json:"foodItemName"`
	Quantity     decimal.Decimal `json:"quantity"`
	Unit         domain.Unit     `json:"unit"`
}

func (in ingredientRequest) input() app.IngredientInput {
	return app.IngredientInput{
		FoodItem: domain.FoodItemRef{ID: in.FoodItemID, Name: in.FoodItemName},
		Quantity: in.Quantity,
		Unit:     in.Unit,
	}
}

type mealDetailResponse struct {
	*app.MealDetail
	Price string `json:"price"`
	// PriceError explains why Price is N/A.
	PriceError string `json:"priceError,omitempty"`
}

// unpriceable reports pricing errors that leave the meal itself readable.
func unpriceable(err error) bool {
	return errors.Is(err, domain.ErrConversion) ||
		errors.Is(err, domain.ErrMixedCurrency) ||
		errors.Is(err, domain.ErrUnsupportedCurrency)
}

func (s *Server) handleMeals(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	switch r.Method {
	case http.MethodGet:
		meals, err := s.meals.List(r.Context(), user.ID)
		if err != nil {
			writeAppError(w, err)
			return
		}
		if meals == nil {
			meals = []domain.Meal{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"meals": meals})
	case http.MethodPost:
		var req struct {
			Name        string              `json:"name"`
			Ingredients []ingredientRequest `json:"ingredients"`
		}
		if err := parseJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		inputs := make([]app.IngredientInput, 0, len(req.Ingredients))
		for _, in := range req.Ingredients {
			inputs = append(inputs, in.input())
		}
		meal, ings, err := s.meals.Create(r.Context(), user.ID, req.Name, inputs)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"meal": meal, "ingredients": ings})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleMeal(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	id, err := pathID(r)
	if err != nil {
		writeAppError(w, err)
		return
	}

	switch r.Method {
	case http.MethodGet:
		detail, err := s.meals.Detail(r.Context(), user.ID, id)
		if err != nil {
			writeAppError(w, err)
			return
		}
		if detail.Instances == nil {
			detail.Instances = []domain.MealInstance{}
		}
		resp := mealDetailResponse{MealDetail: detail}
		price, err := s.pricing.MealPrice(r.Context(), &detail.Meal, "")
		switch {
		case err == nil:
			resp.Price = price.String()
		case unpriceable(err):
			resp.Price, resp.PriceError = app.NotAvailable, err.Error()
		default:
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	case http.MethodDelete:
		if err := s.meals.Delete(r.Context(), user.ID, id); err != nil {
			writeAppError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleMealPrice(w http.ResponseWriter, r *http.Request) {
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
	currency, err := currencyQuery(r)
	if err != nil {
		writeAppError(w, err)
		return
	}

	meal, err := s.meals.Get(r.Context(), user.ID, id)
	if err != nil {
		writeAppError(w, err)
		return
	}
	price, err := s.pricing.MealPrice(r.Context(), meal, currency)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"mealId":   meal.ID,
		"price":    price.String(),
		"total":    price.Total,
		"lines":    price.Lines,
		"unpriced": price.Unpriced,
	})
}

func (s *Server) handleMealIngredients(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	id, err := pathID(r)
	if err != nil {
		writeAppError(w, err)
		return
	}

	switch r.Method {
	case http.MethodGet:
		ings, err := s.meals.Ingredients(r.Context(), user.ID, id)
		if err != nil {
			writeAppError(w, err)
			return
		}
		if ings == nil {
			ings = []domain.StandardIngredient{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"ingredients": ings})
	case http.MethodPost:
		var req ingredientRequest
		if err := parseJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		ing, err := s.meals.AddIngredient(r.Context(), user.ID, id, req.input())
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, ing)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleIngredient(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	user := userFrom(r.Context())
	id, err := pathID(r)
	if err != nil {
		writeAppError(w, err)
		return
	}
	if err := s.meals.DeleteIngredient(r.Context(), user.ID, id); err != nil {
		writeAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMealInstances(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	switch r.Method {
	case http.MethodGet:
		var (
			instances []domain.MealInstance
			err       error
		)
		if v := r.URL.Query().Get("mealId"); v != "" {
			mealID, perr := strconv.ParseInt(v, 10, 64)
			if perr != nil {
				writeAppError(w, &domain.ValidationError{Field: "mealId", Reason: "must be an integer"})
				return
			}
			instances, err = s.instances.ListForMeal(r.Context(), user.ID, mealID)
		} else {
			instances, err = s.instances.ListForUser(r.Context(), user.ID)
		}
		if err != nil {
			writeAppError(w, err)
			return
		}
		if instances == nil {
			instances = []domain.MealInstance{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"instances": instances})
	case http.MethodPost:
		var req struct {
			MealID      int64           `json:"mealId"`
			Date        string          `json:"date"`
			NumServings int             `json:"numServings"`
			Rating      decimal.Decimal `json:"rating"`
			CookTime    int             `json:"cookTime"`
		}
		if err := parseJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		date, err := parseDate("date", req.Date)
		if err != nil {
			writeAppError(w, err)
			return
		}
		mi, err := s.instances.Record(r.Context(), user.ID, domain.MealInstance{
			MealID:      req.MealID,
			Date:        date,
			NumServings: req.NumServings,
			Rating:      req.Rating,
			CookTime:    req.CookTime,
		})
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, mi)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleMealInstance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	user := userFrom(r.Context())
	id, err := pathID(r)
	if err != nil {
		writeAppError(w, err)
		return
	}
	if err := s.instances.Delete(r.Context(), user.ID, id); err != nil {
		writeAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
