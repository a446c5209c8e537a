package httpapi

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/keydir/internal/common"
)

// Request/response DTOs. Binary fields travel hex-encoded.

type challengeResponse struct {
	ChallengeID string `json:"challenge_id"`
	Nonce       string `json:"nonce"`
	ExpiresIn   int    `json:"expires_in"`
}

type tokenRequest struct {
	ChallengeID string `json:"challenge_id"`
	PublicKey   string `json:"public_key"`
	Signature   string `json:"signature"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

type registerRequest struct {
	Username      string `json:"username"`
	EncryptionKey string `json:"encryption_key"`
}

type entryResponse struct {
	Username      string `json:"username"`
	Owner         string `json:"owner"`
	EncryptionKey string `json:"encryption_key"`
}

type updateKeyRequest struct {
	EncryptionKey string `json:"encryption_key"`
}

type snapshotResponse struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorCode(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: code, Message: message})
}

// writeError maps the sentinel error taxonomy onto HTTP statuses and stable
// error codes, so callers can tell "name taken" from "not authorized".
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, common.ErrInvalidUsername):
		writeErrorCode(w, http.StatusBadRequest, "invalid_username", err.Error())
	case errors.Is(err, common.ErrInvalidKey):
		writeErrorCode(w, http.StatusBadRequest, "invalid_key", err.Error())
	case errors.Is(err, common.ErrorAlreadyExists):
		writeErrorCode(w, http.StatusConflict, "username_taken", "username is already registered")
	case errors.Is(err, common.ErrorNotFound):
		writeErrorCode(w, http.StatusNotFound, "username_not_found", "no entry for username")
	case errors.Is(err, common.ErrorUnauthorized):
		writeErrorCode(w, http.StatusForbidden, "unauthorized", "signer is not the entry owner")
	case errors.Is(err, common.ErrChallengeNotFound), errors.Is(err, common.ErrChallengeExpired):
		writeErrorCode(w, http.StatusUnauthorized, "challenge_invalid", err.Error())
	case errors.Is(err, common.ErrInvalidToken):
		writeErrorCode(w, http.StatusUnauthorized, "invalid_token", err.Error())
	default:
		writeErrorCode(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeErrorCode(w, http.StatusBadRequest, "bad_request", "malformed JSON body")
		return false
	}
	return true
}

func (s *Server) handleChallenge(w http.ResponseWriter, r *http.Request) {

	id, nonce, err := s.auth.NewChallenge()
	if err != nil {
		s.logger.Error(r.Context(), "challenge issue failed", "error", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, challengeResponse{
		ChallengeID: id,
		Nonce:       nonce,
		ExpiresIn:   int(s.auth.ChallengeValidity().Seconds()),
	})
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {

	var req tokenRequest
	if !decodeBody(w, r, &req) {
		return
	}

	publicKey, err := hex.DecodeString(req.PublicKey)
	if err != nil {
		writeErrorCode(w, http.StatusBadRequest, "bad_request", "public_key must be hex")
		return
	}
	signature, err := hex.DecodeString(req.Signature)
	if err != nil {
		writeErrorCode(w, http.StatusBadRequest, "bad_request", "signature must be hex")
		return
	}

	token, err := s.auth.RedeemChallenge(req.ChallengeID, publicKey, signature)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			writeErrorCode(w, http.StatusUnauthorized, "bad_signature", "signature verification failed")
			return
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: token})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {

	signer, ok := signerFromContext(r.Context())
	if !ok {
		writeErrorCode(w, http.StatusUnauthorized, "missing_token", "missing bearer token")
		return
	}

	var req registerRequest
	if !decodeBody(w, r, &req) {
		return
	}

	key, err := hex.DecodeString(req.EncryptionKey)
	if err != nil {
		writeError(w, common.ErrInvalidKey)
		return
	}

	entry, err := s.registry.Register(r.Context(), signer, req.Username, key)
	if err != nil {
		writeError(w, err)
		return
	}

	s.logger.Info(r.Context(), "Registered", "username", entry.Username, "owner", entry.Owner.Hex())

	writeJSON(w, http.StatusCreated, entryResponse{
		Username:      entry.Username,
		Owner:         entry.Owner.Hex(),
		EncryptionKey: hex.EncodeToString(entry.EncryptionKey[:]),
	})
}

func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {

	entry, err := s.registry.Lookup(r.Context(), r.PathValue("username"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, entryResponse{
		Username:      entry.Username,
		Owner:         entry.Owner.Hex(),
		EncryptionKey: hex.EncodeToString(entry.EncryptionKey[:]),
	})
}

func (s *Server) handleUpdateKey(w http.ResponseWriter, r *http.Request) {

	signer, ok := signerFromContext(r.Context())
	if !ok {
		writeErrorCode(w, http.StatusUnauthorized, "missing_token", "missing bearer token")
		return
	}

	var req updateKeyRequest
	if !decodeBody(w, r, &req) {
		return
	}

	key, err := hex.DecodeString(req.EncryptionKey)
	if err != nil {
		writeError(w, common.ErrInvalidKey)
		return
	}

	username := r.PathValue("username")
	if err := s.registry.UpdateKey(r.Context(), signer, username, key); err != nil {
		writeError(w, err)
		return
	}

	s.logger.Info(r.Context(), "Key updated", "username", username)

	writeJSON(w, http.StatusOK, entryResponse{
		Username:      username,
		Owner:         signer.Hex(),
		EncryptionKey: req.EncryptionKey,
	})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {

	key, url, err := s.snapshot.Export(r.Context())
	if err != nil {
		s.logger.Error(r.Context(), "snapshot export failed", "error", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, snapshotResponse{Key: key, URL: url})
}

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}
