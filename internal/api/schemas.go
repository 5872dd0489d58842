package api

import (
	"time"

	"github.com/NizarSH98/OD-SaaS/internal/annotation"
	"github.com/NizarSH98/OD-SaaS/internal/auth"
	"github.com/NizarSH98/OD-SaaS/internal/project"
)

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	UptimeS int64  `json:"uptime_s"`
}

type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type UserResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
	LastLogin string `json:"last_login,omitempty"`
}

type ProjectSummaryResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	CreatedAt  string `json:"created_at"`
	FrameCount int    `json:"frame_count"`
}

type ProjectsResponse struct {
	Projects []ProjectSummaryResponse `json:"projects"`
}

type ProjectResponse struct {
	ID             string  `json:"id"`
	VideoName      string  `json:"video_name"`
	FPS            float64 `json:"fps"`
	TotalFrames    int     `json:"total_frames"`
	Duration       float64 `json:"duration"`
	Interval       float64 `json:"interval"`
	ExtractedCount int     `json:"extracted_count"`
	CreatedAt      string  `json:"created_at"`
}

type SaveAnnotationsRequest struct {
	Annotations []annotation.Annotation `json:"annotations"`
}

type SaveAnnotationsResponse struct {
	Saved       bool                    `json:"saved"`
	Annotations []annotation.Annotation `json:"annotations"`
}

type AnnotationsResponse struct {
	FrameIndex  int                     `json:"frame_index"`
	Annotations []annotation.Annotation `json:"annotations"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func UserToResponse(u *auth.User) UserResponse {
	resp := UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
	}
	if u.LastLogin != nil {
		resp.LastLogin = u.LastLogin.Format(time.RFC3339)
	}
	return resp
}

func SummaryToResponse(s project.Summary) ProjectSummaryResponse {
	return ProjectSummaryResponse{
		ID:         s.ID,
		Name:       s.Name,
		CreatedAt:  s.CreatedAt.Format(time.RFC3339),
		FrameCount: s.FrameCount,
	}
}

func MetadataToResponse(m *project.Metadata) ProjectResponse {
	return ProjectResponse{
		ID:             m.ProjectID,
		VideoName:      m.VideoName,
		FPS:            m.FPS,
		TotalFrames:    m.TotalFrames,
		Duration:       m.Duration,
		Interval:       m.Interval,
		ExtractedCount: m.ExtractedCount,
		CreatedAt:      m.CreatedAt.Format(time.RFC3339),
	}
}
