package handler

import (
	"time"

	"github.com/yndnr/dirmesh-go/internal/core/domain"
)

// Response is the JSON envelope. Success responses carry Data; error
// responses carry Code and Message.
type Response struct {
	RequestID string `json:"request_id"`
	Timestamp int64  `json:"timestamp"`
	Code      string `json:"code,omitempty"`
	Message   string `json:"message,omitempty"`
	Data      any    `json:"data,omitempty"`
}

// NewResponse creates a success response.
func NewResponse(requestID string, data any) *Response {
	return &Response{
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	}
}

// NewErrorResponse creates an error response.
func NewErrorResponse(requestID, code, message string) *Response {
	return &Response{
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Code:      code,
		Message:   message,
	}
}

// HealthResponse is the body of /health and /ready.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// SessionResponse describes one active session.
type SessionResponse struct {
	Identity string `json:"identity"`
	IP       string `json:"ip"`
	Port     string `json:"port"`
}

// SessionListResponse is the body of GET /v1/sessions.
type SessionListResponse struct {
	Sessions []SessionResponse `json:"sessions"`
	Total    int               `json:"total"`
}

// EntryResponse describes one catalog entry.
type EntryResponse struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// CatalogResponse is the body of GET /v1/catalogs/{identity}.
type CatalogResponse struct {
	Identity string          `json:"identity"`
	Entries  []EntryResponse `json:"entries"`
	Total    int             `json:"total"`
}

func sessionToResponse(s domain.Session) SessionResponse {
	return SessionResponse{
		Identity: s.Identity,
		IP:       s.Endpoint.IP,
		Port:     s.Endpoint.Port,
	}
}

func entryToResponse(e domain.CatalogEntry) EntryResponse {
	return EntryResponse{Name: e.Name, Description: e.Description}
}
