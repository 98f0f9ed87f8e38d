package adapthttp

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"mealprice/internal/domain"
)

const dateLayout = "2006-01-02"

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"error": err.Error()})
}

// writeAppError maps domain and application errors to HTTP statuses.
func writeAppError(w http.ResponseWriter, err error) {
	var dup *domain.DuplicateFoodItemError
	switch {
	case errors.As(err, &dup):
		writeJSON(w, http.StatusConflict, map[string]any{"error": err.Error(), "existingId": dup.ExistingID})
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, domain.ErrConversion),
		errors.Is(err, domain.ErrMixedCurrency),
		errors.Is(err, domain.ErrUnsupportedCurrency):
		writeError(w, http.StatusUnprocessableEntity, err)
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	default:
		log.Printf("internal error: %v", err)
		writeError(w, http.StatusInternalServerError, errors.New("internal error"))
	}
}

func parseJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}
	return nil
}

// pathID parses the {id} wildcard of the matched route.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, &domain.ValidationError{Field: "id", Reason: fmt.Sprintf("invalid id %q", r.PathValue("id"))}
	}
	return id, nil
}

func decimalQuery(r *http.Request, key string) (decimal.Decimal, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil || !d.IsPositive() {
		return decimal.Zero, &domain.ValidationError{Field: key, Reason: "must be a positive number"}
	}
	return d, nil
}

func currencyQuery(r *http.Request) (domain.Currency, error) {
	v := r.URL.Query().Get("currency")
	if v == "" {
		return "", nil
	}
	return domain.ParseCurrency(v)
}

func unitQuery(r *http.Request) (domain.Unit, error) {
	v := r.URL.Query().Get("unit")
	if v == "" {
		return "", nil
	}
	return domain.ParseUnit(v)
}

// parseDate accepts YYYY-MM-DD. An empty string yields the zero time.
func parseDate(field, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, &domain.ValidationError{Field: field, Reason: "must be YYYY-MM-DD"}
	}
	return t, nil
}

func withNoCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}
