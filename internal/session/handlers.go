package session

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/toko-storefront/internal/common"
	"github.com/noah-isme/toko-storefront/internal/pricing"
)

// Handler exposes the session's menu operations as JSON endpoints.
type Handler struct {
	Session *Session
}

// Routes mounts the storefront endpoints on r. The mutating middlewares wrap
// only the endpoints that change the cart or the catalog.
func (h *Handler) Routes(r chi.Router, mutating ...func(http.Handler) http.Handler) {
	r.Get("/customer", h.Customer)
	r.Get("/products", h.Products)
	r.Get("/cart", h.Cart)
	r.Group(func(g chi.Router) {
		g.Use(mutating...)
		g.Post("/cart/items", h.AddItem)
		g.Post("/checkout", h.Checkout)
	})
}

type productView struct {
	Position         int           `json:"position"`
	Name             string        `json:"name"`
	Price            pricing.Money `json:"price"`
	PriceDisplay     string        `json:"priceDisplay"`
	Quantity         int           `json:"quantity"`
	ExpiryDate       *string       `json:"expiryDate"`
	RequiresShipping bool          `json:"requiresShipping"`
	WeightKg         *string       `json:"weightKg"`
}

type addedView struct {
	Added Added    `json:"added"`
	Cart  CartView `json:"cart"`
}

// Customer returns the customer's name and balance.
func (h *Handler) Customer(w http.ResponseWriter, _ *http.Request) {
	if !h.configured(w) {
		return
	}
	common.Data(w, http.StatusOK, h.Session.Customer())
}

// Products lists the catalog in menu order.
func (h *Handler) Products(w http.ResponseWriter, _ *http.Request) {
	if !h.configured(w) {
		return
	}
	products := h.Session.Products()
	items := make([]productView, 0, len(products))
	for i, p := range products {
		view := productView{
			Position:         i + 1,
			Name:             p.Name,
			Price:            p.Price,
			PriceDisplay:     pricing.FormatUSD(p.Price),
			Quantity:         p.Quantity,
			RequiresShipping: p.RequiresShipping,
		}
		if p.CanExpire {
			date := p.ExpiryDate.Format(dateLayout)
			view.ExpiryDate = &date
		}
		if p.RequiresShipping {
			kg := kilograms(p.WeightGrams)
			view.WeightKg = &kg
		}
		items = append(items, view)
	}
	common.Data(w, http.StatusOK, items)
}

// Cart returns the current cart.
func (h *Handler) Cart(w http.ResponseWriter, _ *http.Request) {
	if !h.configured(w) {
		return
	}
	common.Data(w, http.StatusOK, h.Session.Cart())
}

// AddItem adds a product by catalog position or by name.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	if !h.configured(w) {
		return
	}
	var payload struct {
		Position int    `json:"position"`
		Product  string `json:"product"`
		Quantity int    `json:"quantity"`
	}
	if err := common.DecodeJSON(r.Body, &payload); err != nil {
		common.WriteError(w, err)
		return
	}

	var (
		added Added
		err   error
	)
	switch name := strings.TrimSpace(payload.Product); {
	case name != "" && payload.Position != 0:
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "give either position or product, not both", nil)
		return
	case name != "":
		added, err = h.Session.AddNamed(name, payload.Quantity)
	default:
		added, err = h.Session.AddToCart(payload.Position, payload.Quantity)
	}
	if err != nil {
		common.WriteError(w, AppError(err))
		return
	}
	common.Data(w, http.StatusCreated, addedView{Added: added, Cart: h.Session.Cart()})
}

// Checkout settles the cart and returns the receipt.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	if !h.configured(w) {
		return
	}
	receipt, err := h.Session.Checkout(r.Context())
	if err != nil {
		common.WriteError(w, AppError(err))
		return
	}
	common.Data(w, http.StatusCreated, receipt)
}

func (h *Handler) configured(w http.ResponseWriter) bool {
	if h == nil || h.Session == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "session not configured", nil)
		return false
	}
	return true
}
