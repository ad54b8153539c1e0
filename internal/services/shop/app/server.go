package app

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"

	apperrors "github.com/dragonlost/web/internal/errors"
)

// NewHandler creates the shop delivery routes.
//
// This is the narrow boundary the website layer calls into; the site's own
// routing, sessions, and Steam authentication live elsewhere and pass the
// already-authenticated steam id explicitly.
func NewHandler(coordinator *Coordinator, game GameClient) http.Handler {
	s := &server{coordinator: coordinator, game: game}

	mux := http.NewServeMux()
	mux.HandleFunc("/up", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	mux.HandleFunc("GET /players/{steamID}/online", s.handlePlayerOnline)
	mux.HandleFunc("POST /purchases/{id}/deliver", s.handleDeliverPurchase)
	return mux
}

type server struct {
	coordinator *Coordinator
	game        GameClient
}

type onlineResponse struct {
	Online  bool   `json:"online"`
	Message string `json:"message,omitempty"`
}

type deliveredItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Code     string `json:"code"`
}

type deliverResponse struct {
	Success bool          `json:"success"`
	Item    deliveredItem `json:"item"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// handlePlayerOnline reports live presence on the game server. Failures are
// reported as offline rather than as errors: the caller only wants to know
// whether delivery is possible right now.
func (s *server) handlePlayerOnline(w http.ResponseWriter, r *http.Request) {
	steamID := strings.TrimSpace(r.PathValue("steamID"))
	if steamID == "" {
		writeDomainError(w, r, apperrors.New(apperrors.CodePurchaseEmptySteamID, "steam id is required"))
		return
	}

	if !s.game.Configured() {
		writeJSON(w, http.StatusOK, onlineResponse{Online: false, Message: "rcon is not configured"})
		return
	}

	online, err := s.game.PlayerOnline(r.Context(), steamID)
	if err != nil {
		log.Printf("shop: online check for %s: %v", steamID, err)
		writeJSON(w, http.StatusOK, onlineResponse{Online: false, Message: "could not reach the game server"})
		return
	}
	writeJSON(w, http.StatusOK, onlineResponse{Online: online})
}

func (s *server) handleDeliverPurchase(w http.ResponseWriter, r *http.Request) {
	purchaseID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || purchaseID < 1 {
		writeDomainError(w, r, apperrors.New(apperrors.CodePurchaseInvalidID, "invalid purchase id"))
		return
	}
	steamID := strings.TrimSpace(r.FormValue("steam_id"))
	if steamID == "" {
		writeDomainError(w, r, apperrors.New(apperrors.CodePurchaseEmptySteamID, "steam id is required"))
		return
	}

	delivery, err := s.coordinator.FulfillPurchase(r.Context(), purchaseID, steamID)
	if err != nil {
		log.Printf("shop: deliver purchase id=%d steam_id=%s: %v", purchaseID, steamID, err)
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, deliverResponse{
		Success: true,
		Item: deliveredItem{
			Name:     delivery.ItemName,
			Quantity: delivery.Quantity,
			Code:     delivery.ItemCode,
		},
	})
}

func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := apperrors.HandleHTTP(err, r.Header.Get("Accept-Language"))
	writeJSON(w, status, errorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("shop: encode response: %v", err)
	}
}
