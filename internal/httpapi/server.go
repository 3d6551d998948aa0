package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/coteri/server/internal/coteri/service"
	"github.com/coteri/server/internal/coteri/types"
)

type Dependencies struct {
	Logger        *log.Logger
	Addr          string
	VerifyService *service.VerifyService
}

type Server struct {
	httpServer    *http.Server
	logger        *log.Logger
	mux           *http.ServeMux
	verifyService *service.VerifyService
}

func NewServer(d Dependencies) *Server {
	mux := http.NewServeMux()

	s := &Server{
		logger:        d.Logger,
		mux:           mux,
		verifyService: d.VerifyService,
	}

	mux.HandleFunc("/v1/verify", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
		s.handleVerify(w, r)
	})

	handler := loggingMiddleware(d.Logger, mux)

	s.httpServer = &http.Server{
		Addr:              d.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

type verifyBody struct {
	Payload string `json:"payload"`
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	staff, ok := staffFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "staff identity headers missing")
		return
	}
	if !staff.roleAllowed() {
		writeError(w, http.StatusForbidden, "forbidden", "role is not allowed to verify")
		return
	}

	var body verifyBody
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return
	}

	res, err := s.verifyService.Verify(r.Context(), types.VerifyRequest{
		StaffUserID: staff.UserID,
		VenueID:     staff.VenueID,
		SessionID:   staff.SessionID,
		RawPayload:  body.Payload,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidStaffUserID),
			errors.Is(err, service.ErrInvalidVenueID):
			writeError(w, http.StatusBadRequest, "bad_request", err.Error())
			return
		default:
			s.logger.Printf("verify error: %v", err)
			writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
			return
		}
	}

	writeJSON(w, http.StatusOK, res)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorBody{Error: code, Message: msg})
}
