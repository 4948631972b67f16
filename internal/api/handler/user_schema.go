package handler

import (
	"github.com/hourbook/volunteer-api/internal/core/domain"
	"github.com/hourbook/volunteer-api/internal/core/ports"
)

type createUserRequest struct {
	Email          string `json:"email"          validate:"required,email"`
	AuthProviderID string `json:"authProviderId" validate:"required"`
	Name           string `json:"name"           validate:"required"`
	Role           string `json:"role"           validate:"omitempty,oneof=student admin"`
	SchoolID       string `json:"schoolId"`
	OEN            string `json:"oen"`
}

func (r createUserRequest) toInput() ports.CreateUserInput {
	return ports.CreateUserInput{
		Email:          r.Email,
		AuthProviderID: r.AuthProviderID,
		Name:           r.Name,
		Role:           domain.Role(r.Role),
		SchoolID:       r.SchoolID,
		OEN:            r.OEN,
	}
}

type updateProfileRequest struct {
	OEN      string `json:"oen"      validate:"required"`
	SchoolID string `json:"schoolId" validate:"required"`
}

type errorResponse struct {
	Error string `json:"error"`
}
