package till

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/zombor/pos-terminal/internal/catalog"
)

// errorResponse is the body of every failed API call
type errorResponse struct {
	Error string `json:"error"`
	Key   string `json:"key,omitempty"`
	Code  int    `json:"code,omitempty"`
}

// orderResponse adds display totals to an order
type orderResponse struct {
	Order
	Total string `json:"total"`
}

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, resp errorResponse) {
	setCORSHeaders(w)
	writeJSON(w, status, resp)
}

// handleIndex serves the HTML interface
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexHTML)
}

// handleScan adds a scanned barcode to the order
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Barcode string `json:"barcode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
		return
	}

	line, err := s.service.Scan(req.Barcode)
	if err != nil {
		var scanErr *ScanError
		if errors.As(err, &scanErr) {
			status := http.StatusUnprocessableEntity
			if scanErr.NotFound() {
				status = http.StatusNotFound
			}
			writeError(w, status, errorResponse{
				Error: s.service.Message(err),
				Key:   scanErr.MessageKey(),
				Code:  scanErr.Code(),
			})
			return
		}
		slog.Error("Error scanning barcode", "barcode", req.Barcode, "error", err)
		writeError(w, http.StatusInternalServerError, errorResponse{Error: "Internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, line)
}

// handleGetOrder returns the running order
func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	order := s.service.Order()
	writeJSON(w, http.StatusOK, orderResponse{
		Order: order,
		Total: s.service.FormatAmount(order.TotalCents),
	})
}

// handleCancelOrder discards the running order
func (s *Server) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	s.service.Cancel()
	w.WriteHeader(http.StatusNoContent)
}

// handleCheckout confirms payment
func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	sale, err := s.service.Checkout()
	if err != nil {
		writeError(w, http.StatusBadRequest, errorResponse{
			Error: s.service.Message(err),
			Key:   "empty_order",
		})
		return
	}

	writeJSON(w, http.StatusCreated, sale)
}

// handleGetProduct returns a catalog product
func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	plu, err := strconv.Atoi(r.PathValue("plu"))
	if err != nil || plu < 0 {
		writeError(w, http.StatusBadRequest, errorResponse{Error: "Invalid PLU"})
		return
	}

	product, err := s.service.GetProduct(plu)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, errorResponse{
				Error: s.service.Message(&ScanError{PLU: plu, Err: err}),
				Key:   "product_not_found",
			})
			return
		}
		slog.Error("Error getting product", "plu", plu, "error", err)
		writeError(w, http.StatusInternalServerError, errorResponse{Error: "Internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, product)
}

// handleListLanguages returns the selectable languages
func (s *Server) handleListLanguages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.Languages())
}

// handleSetLanguage switches the display language
func (s *Server) handleSetLanguage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
		return
	}

	locale, err := s.service.SetLanguage(req.Name)
	if err != nil {
		writeError(w, http.StatusBadRequest, errorResponse{
			Error: s.service.Message(err),
			Key:   "unknown_language",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"locale": locale})
}

// handleTexts returns the display texts of the active language
func (s *Server) handleTexts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.Texts())
}
