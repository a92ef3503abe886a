package transport

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"storefront/internal/domain"
	"storefront/internal/middleware"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

// AddProductRequest represents a product delivery payload
type AddProductRequest struct {
	ID             int64   `json:"id"`
	Name           string  `json:"name" validate:"required"`
	DeliveryPrice  float64 `json:"delivery_price" validate:"gte=0"`
	Category       string  `json:"category" validate:"required,oneof=FOOD NON_FOOD"`
	ExpirationDate string  `json:"expiration_date" validate:"required,datetime=2006-01-02"`
	Quantity       int     `json:"quantity" validate:"gte=0"`
}

// AddCashierRequest represents a cashier hire payload
type AddCashierRequest struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name" validate:"required"`
	MonthlySalary float64 `json:"monthly_salary" validate:"gte=0"`
}

// AssignCashierRequest represents a register assignment payload
type AssignCashierRequest struct {
	CashierID int64 `json:"cashier_id" validate:"required"`
}

// SaleItemRequest is one basket line of a sale request
type SaleItemRequest struct {
	ProductID int64 `json:"product_id" validate:"required"`
	Quantity  int   `json:"quantity" validate:"required,gt=0"`
}

// CreateSaleRequest represents a sale payload
type CreateSaleRequest struct {
	RegisterNumber int               `json:"register_number" validate:"gte=0"`
	Items          []SaleItemRequest `json:"items" validate:"required,min=1,dive"`
}

// ProductResponse represents a catalog product
type ProductResponse struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	DeliveryPrice  string `json:"delivery_price"`
	Category       string `json:"category"`
	ExpirationDate string `json:"expiration_date"`
	Quantity       int    `json:"quantity"`
}

// CashierResponse represents a cashier record
type CashierResponse struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	MonthlySalary  string `json:"monthly_salary"`
	RegisterNumber int    `json:"register_number"`
}

// ReceiptItemResponse is one frozen line of an issued receipt
type ReceiptItemResponse struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	LineTotal string `json:"line_total"`
}

// ReceiptResponse represents an issued receipt
type ReceiptResponse struct {
	Number         int64                 `json:"number"`
	IssuedAt       string                `json:"issued_at"`
	Cashier        CashierResponse       `json:"cashier"`
	RegisterNumber int                   `json:"register_number"`
	Items          []ReceiptItemResponse `json:"items"`
	Total          string                `json:"total"`
}

// SummaryResponse represents the financial report of the store
type SummaryResponse struct {
	Revenue          string `json:"revenue"`
	SalaryExpenses   string `json:"salary_expenses"`
	DeliveryExpenses string `json:"delivery_expenses"`
	Income           string `json:"income"`
	Profit           string `json:"profit"`
	ReceiptCount     int    `json:"receipt_count"`
}

// StoreHandler handles HTTP requests for store operations
type StoreHandler struct {
	store  service.StoreService
	logger *zap.Logger
}

// NewStoreHandler creates a new StoreHandler
func NewStoreHandler(store service.StoreService, logger *zap.Logger) *StoreHandler {
	return &StoreHandler{
		store:  store,
		logger: logger,
	}
}

// RegisterRoutes registers all store routes
func (h *StoreHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/products", h.AddProduct)
		r.Get("/products", h.ListProducts)
		r.Post("/cashiers", h.AddCashier)
		r.Get("/cashiers", h.ListCashiers)
		r.Post("/registers/{register}/cashier", h.AssignCashier)
		r.Post("/sales", h.CreateSale)
		r.Get("/receipts/{number}", h.GetReceipt)
		r.Get("/receipts/{number}/file", h.ReloadReceipt)
		r.Get("/reports/summary", h.GetSummary)
	})
}

// AddProduct handles a product delivery
func (h *StoreHandler) AddProduct(w http.ResponseWriter, r *http.Request) {
	var req AddProductRequest

	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Product validation failed", zap.Error(err))
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	expiration, err := time.Parse(dateLayout, req.ExpirationDate)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid expiration date")
		return
	}

	product, err := h.store.AddProduct(r.Context(), domain.Product{
		ID:             req.ID,
		Name:           req.Name,
		DeliveryPrice:  decimal.NewFromFloat(req.DeliveryPrice),
		Category:       domain.Category(req.Category),
		ExpirationDate: expiration,
		Quantity:       req.Quantity,
	})
	if err != nil {
		h.respondDomainError(w, err)
		return
	}

	h.logger.Info("Product added", zap.Int64("product_id", product.ID))
	middleware.RespondWithJSON(w, http.StatusCreated, toProductResponse(product))
}

// ListProducts handles listing delivered products
func (h *StoreHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products := h.store.Products(r.Context())

	out := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		out = append(out, toProductResponse(p))
	}
	middleware.RespondWithJSON(w, http.StatusOK, out)
}

// AddCashier handles hiring a cashier
func (h *StoreHandler) AddCashier(w http.ResponseWriter, r *http.Request) {
	var req AddCashierRequest

	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Cashier validation failed", zap.Error(err))
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cashier, err := h.store.AddCashier(r.Context(), domain.Cashier{
		ID:            req.ID,
		Name:          req.Name,
		MonthlySalary: decimal.NewFromFloat(req.MonthlySalary),
	})
	if err != nil {
		h.respondDomainError(w, err)
		return
	}

	h.logger.Info("Cashier added", zap.Int64("cashier_id", cashier.ID))
	middleware.RespondWithJSON(w, http.StatusCreated, toCashierResponse(cashier))
}

// ListCashiers handles listing cashiers
func (h *StoreHandler) ListCashiers(w http.ResponseWriter, r *http.Request) {
	cashiers := h.store.Cashiers(r.Context())

	out := make([]CashierResponse, 0, len(cashiers))
	for _, c := range cashiers {
		out = append(out, toCashierResponse(c))
	}
	middleware.RespondWithJSON(w, http.StatusOK, out)
}

// AssignCashier handles binding a cashier to a register
func (h *StoreHandler) AssignCashier(w http.ResponseWriter, r *http.Request) {
	register, err := strconv.Atoi(chi.URLParam(r, "register"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid register number")
		return
	}

	var req AssignCashierRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Assignment validation failed", zap.Error(err))
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.store.AssignCashierToRegister(r.Context(), req.CashierID, register); err != nil {
		h.respondDomainError(w, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "cashier assigned"})
}

// CreateSale handles ringing up a basket
func (h *StoreHandler) CreateSale(w http.ResponseWriter, r *http.Request) {
	var req CreateSaleRequest

	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Sale validation failed", zap.Error(err))
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	basket := make(service.Basket, len(req.Items))
	for _, item := range req.Items {
		basket[item.ProductID] += item.Quantity
	}

	receipt, err := h.store.CreateSale(r.Context(), req.RegisterNumber, basket)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, toReceiptResponse(*receipt))
}

// GetReceipt handles a ledger receipt lookup
func (h *StoreHandler) GetReceipt(w http.ResponseWriter, r *http.Request) {
	number, err := strconv.ParseInt(chi.URLParam(r, "number"), 10, 64)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid receipt number")
		return
	}

	receipt, err := h.store.Receipt(r.Context(), number)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, toReceiptResponse(receipt))
}

// ReloadReceipt handles reloading a receipt from durable storage
func (h *StoreHandler) ReloadReceipt(w http.ResponseWriter, r *http.Request) {
	number, err := strconv.ParseInt(chi.URLParam(r, "number"), 10, 64)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid receipt number")
		return
	}

	receipt, err := h.store.ReloadReceipt(r.Context(), number)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, toReceiptResponse(*receipt))
}

// GetSummary handles the financial report
func (h *StoreHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	s := h.store.Summary(r.Context())

	middleware.RespondWithJSON(w, http.StatusOK, SummaryResponse{
		Revenue:          s.Revenue.StringFixed(2),
		SalaryExpenses:   s.SalaryExpenses.StringFixed(2),
		DeliveryExpenses: s.DeliveryExpenses.StringFixed(2),
		Income:           s.Income.StringFixed(2),
		Profit:           s.Profit.StringFixed(2),
		ReceiptCount:     s.ReceiptCount,
	})
}

// respondDomainError maps domain errors to HTTP statuses with structured
// details for the caller.
func (h *StoreHandler) respondDomainError(w http.ResponseWriter, err error) {
	var (
		productNotFound *domain.ProductNotFoundError
		cashierNotFound *domain.CashierNotFoundError
		receiptNotFound *domain.ReceiptNotFoundError
		expired         *domain.ExpiredProductError
		insufficient    *domain.InsufficientQuantityError
		negativeQty     *domain.NegativeQuantityError
		negativePct     *domain.NegativePercentageError
		registerTaken   *domain.RegisterAlreadyAssignedError
		noCashier       *domain.NoAssignedCashierError
		persistence     *domain.PersistenceError
	)

	switch {
	case errors.As(err, &productNotFound):
		middleware.RespondWithErrorDetails(w, http.StatusNotFound, err.Error(),
			map[string]interface{}{"product_id": productNotFound.ID})
	case errors.As(err, &cashierNotFound):
		middleware.RespondWithErrorDetails(w, http.StatusNotFound, err.Error(),
			map[string]interface{}{"cashier_id": cashierNotFound.ID})
	case errors.As(err, &receiptNotFound):
		middleware.RespondWithErrorDetails(w, http.StatusNotFound, err.Error(),
			map[string]interface{}{"receipt_number": receiptNotFound.Number})
	case errors.As(err, &expired):
		middleware.RespondWithErrorDetails(w, http.StatusUnprocessableEntity, err.Error(),
			map[string]interface{}{"product_id": expired.Product.ID})
	case errors.As(err, &insufficient):
		middleware.RespondWithErrorDetails(w, http.StatusConflict, err.Error(),
			map[string]interface{}{
				"product_id": insufficient.Product.ID,
				"requested":  insufficient.Requested,
				"available":  insufficient.Product.Quantity,
			})
	case errors.As(err, &negativeQty), errors.As(err, &negativePct),
		errors.Is(err, domain.ErrNegativeRegister):
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &registerTaken):
		middleware.RespondWithErrorDetails(w, http.StatusConflict, err.Error(),
			map[string]interface{}{"register": registerTaken.Register})
	case errors.As(err, &noCashier):
		middleware.RespondWithErrorDetails(w, http.StatusConflict, err.Error(),
			map[string]interface{}{"register": noCashier.Register})
	case errors.As(err, &persistence):
		h.logger.Error("Receipt persistence failure surfaced to caller", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, err.Error())
	default:
		h.logger.Error("Unexpected store error", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}

func toProductResponse(p domain.Product) ProductResponse {
	return ProductResponse{
		ID:             p.ID,
		Name:           p.Name,
		DeliveryPrice:  p.DeliveryPrice.StringFixed(2),
		Category:       string(p.Category),
		ExpirationDate: p.ExpirationDate.Format(dateLayout),
		Quantity:       p.Quantity,
	}
}

func toCashierResponse(c domain.Cashier) CashierResponse {
	return CashierResponse{
		ID:             c.ID,
		Name:           c.Name,
		MonthlySalary:  c.MonthlySalary.StringFixed(2),
		RegisterNumber: c.RegisterNumber,
	}
}

func toReceiptResponse(r domain.Receipt) ReceiptResponse {
	items := make([]ReceiptItemResponse, 0, len(r.Items))
	for _, item := range r.Items {
		items = append(items, ReceiptItemResponse{
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice.StringFixed(2),
			LineTotal: item.LineTotal.StringFixed(2),
		})
	}
	return ReceiptResponse{
		Number:         r.Number,
		IssuedAt:       r.IssuedAt.Format(time.RFC3339),
		Cashier:        toCashierResponse(r.Cashier),
		RegisterNumber: r.RegisterNumber,
		Items:          items,
		Total:          r.Total.StringFixed(2),
	}
}
