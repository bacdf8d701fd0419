package dto

import (
	"time"

	authDomain "github.com/KiritoEM/safeo-api/internal/auth/domain"
)

// ChallengeResponse is returned while a login or signup waits for its OTP.
type ChallengeResponse struct {
	VerificationToken string `json:"verification_token"`
	Message           string `json:"message"`
}

// SessionResponse is returned once the OTP has been verified.
// SECURITY: The refresh token is only returned here and must be stored by the client.
type SessionResponse struct {
	UserID       string `json:"user_id"`
	Email        string `json:"email"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"` //nolint:gosec // returned once per session
	Message      string `json:"message"`
}

// MapSessionToResponse converts a session output to an API response.
func MapSessionToResponse(session *authDomain.SessionOutput, message string) SessionResponse {
	return SessionResponse{
		UserID:       session.UserID.String(),
		Email:        session.Email,
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		Message:      message,
	}
}

// RefreshAccessTokenResponse carries a new access token.
type RefreshAccessTokenResponse struct {
	AccessToken string `json:"access_token"`
	Message     string `json:"message"`
}

// ActivityLogResponse represents an activity log entry in API responses.
type ActivityLogResponse struct {
	ID        string    `json:"id"`
	Action    string    `json:"action"`
	Target    string    `json:"target"`
	IPAddress string    `json:"ip_address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// MapActivityLogToResponse converts a domain activity log to an API response.
func MapActivityLogToResponse(activityLog *authDomain.ActivityLog) ActivityLogResponse {
	return ActivityLogResponse{
		ID:        activityLog.ID.String(),
		Action:    string(activityLog.Action),
		Target:    string(activityLog.Target),
		IPAddress: activityLog.IPAddress,
		CreatedAt: activityLog.CreatedAt,
	}
}

// ListActivityLogsResponse represents a paginated list of activity logs.
type ListActivityLogsResponse struct {
	Data []ActivityLogResponse `json:"data"`
}

// MapActivityLogsToListResponse converts domain activity logs to a list API response.
func MapActivityLogsToListResponse(activityLogs []*authDomain.ActivityLog) ListActivityLogsResponse {
	responses := make([]ActivityLogResponse, 0, len(activityLogs))
	for _, activityLog := range activityLogs {
		responses = append(responses, MapActivityLogToResponse(activityLog))
	}
	return ListActivityLogsResponse{
		Data: responses,
	}
}
