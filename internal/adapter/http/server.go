package adapthttp

import (
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"mealprice/internal/app"
)

// DevUserID is the user every request acts as when auth is disabled.
const DevUserID int64 = 1

// Services bundles the application services the HTTP adapter drives.
type Services struct {
	Foods     *app.FoodItemService
	Purchases *app.PurchaseService
	Meals     *app.MealService
	Instances *app.MealInstanceService
	Pricing   *app.PricingService
	Auth      *app.AuthService
}

// OIDCConfig configures the optional OpenID Connect login.
type OIDCConfig struct {
	Enabled      bool
	Provider     *oidc.Provider
	OAuth2Config oauth2.Config
}

// Server is the driving HTTP adapter that routes requests to application
// services.
type Server struct {
	foods      *app.FoodItemService
	purchases  *app.PurchaseService
	meals      *app.MealService
	instances  *app.MealInstanceService
	pricing    *app.PricingService
	authSvc    *app.AuthService
	oidcConfig OIDCConfig

	disableAuth bool
}

// New creates a Server wired to the given application services.
func New(svc Services, oidcConfig OIDCConfig) *Server {
	return &Server{
		foods:      svc.Foods,
		purchases:  svc.Purchases,
		meals:      svc.Meals,
		instances:  svc.Instances,
		pricing:    svc.Pricing,
		authSvc:    svc.Auth,
		oidcConfig: oidcConfig,
	}
}

// WithoutAuth disables authentication; every request acts as DevUserID.
func (s *Server) WithoutAuth() *Server {
	s.disableAuth = true
	return s
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
	api.HandleFunc("/units", s.handleUnits)

	api.HandleFunc("/auth/login", s.handleLogin)
	api.HandleFunc("/auth/logout", s.handleLogout)
	api.HandleFunc("/auth/setup", s.handleSetupUser)
	api.HandleFunc("/auth/config", s.handleConfig)
	api.HandleFunc("/auth/token", s.handleToken)
	api.HandleFunc("/auth/sso/login", s.handleSSOLogin)
	api.HandleFunc("/auth/sso/callback", s.handleSSOCallback)

	protected := http.NewServeMux()
	protected.HandleFunc("/food-items", s.handleFoodItems)
	protected.HandleFunc("/food-items/{id}", s.handleFoodItem)
	protected.HandleFunc("/food-items/{id}/price", s.handleFoodItemPrice)

	protected.HandleFunc("/purchases", s.handlePurchases)
	protected.HandleFunc("/purchases/{id}", s.handlePurchase)

	protected.HandleFunc("/meals", s.handleMeals)
	protected.HandleFunc("/meals/{id}", s.handleMeal)
	protected.HandleFunc("/meals/{id}/price", s.handleMealPrice)
	protected.HandleFunc("/meals/{id}/ingredients", s.handleMealIngredients)
	protected.HandleFunc("/ingredients/{id}", s.handleIngredient)

	protected.HandleFunc("/meal-instances", s.handleMealInstances)
	protected.HandleFunc("/meal-instances/{id}", s.handleMealInstance)

	protected.HandleFunc("/account", s.handleAccount)

	api.Handle("/", s.authMiddleware(protected))

	root := http.NewServeMux()
	root.Handle("/api/", http.StripPrefix("/api", api))

	return s.loggingMiddleware(withNoCache(root))
}
