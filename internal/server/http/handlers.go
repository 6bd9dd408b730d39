package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/bizkeeper/internal/common"
	"github.com/dmitrijs2005/bizkeeper/internal/server/models"
)

// singletonDocumentID is the fixed key singleton collections (settings,
// profile) are stored under. Clients address those through /api/docs.
const singletonDocumentID = "default"

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	UserID       string `json:"user_id"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type upsertRequest struct {
	Payload json.RawMessage `json:"payload"`
	Deleted bool            `json:"deleted"`
}

type upsertResponse struct {
	ServerTimestamp time.Time `json:"server_timestamp"`
}

type recordResponse struct {
	ID          string          `json:"id"`
	Payload     json.RawMessage `json:"payload"`
	LastUpdated time.Time       `json:"last_updated"`
	Deleted     bool            `json:"deleted"`
}

type listResponse struct {
	Records []recordResponse `json:"records"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func toRecordResponse(doc *models.Document) recordResponse {
	return recordResponse{
		ID:          doc.ID,
		Payload:     doc.Payload,
		LastUpdated: doc.UpdatedAt,
		Deleted:     doc.Deleted,
	}
}

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	if _, err := s.users.Register(r.Context(), req.Username, req.Password); err != nil {
		s.logger.Error(r.Context(), "registration failed", "error", err)
		writeError(w, http.StatusConflict, "cannot create user")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "created"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	userID, pair, err := s.users.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		s.logger.Error(r.Context(), "login failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{
		UserID:       userID,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	userID, pair, err := s.users.RefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) || errors.Is(err, common.ErrRefreshTokenExpired) {
			writeError(w, http.StatusUnauthorized, "invalid refresh token")
			return
		}
		s.logger.Error(r.Context(), "token refresh failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{
		UserID:       userID,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

func (s *Server) upsert(w http.ResponseWriter, r *http.Request, collection, id string) {
	var req upsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Payload) == 0 {
		writeError(w, http.StatusBadRequest, "payload is required")
		return
	}

	ts, err := s.documents.Upsert(r.Context(), userID(r), collection, id, req.Payload, req.Deleted)
	if err != nil {
		s.logger.Error(r.Context(), "document upsert failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, upsertResponse{ServerTimestamp: ts})
}

func (s *Server) handleUpsertRecord(w http.ResponseWriter, r *http.Request) {
	s.upsert(w, r, r.PathValue("collection"), r.PathValue("id"))
}

func (s *Server) handleUpsertDocument(w http.ResponseWriter, r *http.Request) {
	s.upsert(w, r, r.PathValue("collection"), singletonDocumentID)
}

func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	docs, err := s.documents.List(r.Context(), userID(r), r.PathValue("collection"))
	if err != nil {
		s.logger.Error(r.Context(), "document list failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	resp := listResponse{Records: make([]recordResponse, 0, len(docs))}
	for _, doc := range docs {
		resp.Records = append(resp.Records, toRecordResponse(doc))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.documents.Get(r.Context(), userID(r), r.PathValue("collection"), singletonDocumentID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		s.logger.Error(r.Context(), "document get failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, toRecordResponse(doc))
}

func (s *Server) handlePresignPut(w http.ResponseWriter, r *http.Request) {
	key, url, err := s.attachments.GetPresignedPutUrl(r.Context())
	if err != nil {
		s.logger.Error(r.Context(), "presign put failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"key": key, "url": url})
}

func (s *Server) handlePresignGet(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		writeError(w, http.StatusBadRequest, "key is required")
		return
	}

	url, err := s.attachments.GetPresignedGetUrl(r.Context(), key)
	if err != nil {
		s.logger.Error(r.Context(), "presign get failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}
