package jwtauth

import (
	authmw "northstar/pkg/platform/middleware/auth"
)

// MiddlewareAdapter bridges the token service to the auth middleware's
// validator interface.
type MiddlewareAdapter struct {
	service *Service
}

func NewMiddlewareAdapter(service *Service) *MiddlewareAdapter {
	return &MiddlewareAdapter{service: service}
}

func (a *MiddlewareAdapter) Validate(tokenString string) (*authmw.Claims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return &authmw.Claims{
		ActorID:  claims.ActorID,
		Role:     claims.Role,
		TenantID: claims.TenantID,
	}, nil
}
