package jwttoken

import (
	"blocktrust/internal/platform/middleware"
)

// JWTServiceAdapter bridges the token service to the middleware's validator
// interface so the transport layer does not depend on jwt-go types.
type JWTServiceAdapter struct {
	svc *JWTService
}

func NewAdapter(svc *JWTService) *JWTServiceAdapter {
	return &JWTServiceAdapter{svc: svc}
}

func (a *JWTServiceAdapter) ValidateToken(tokenString string) (*middleware.JWTClaims, error) {
	claims, err := a.svc.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return &middleware.JWTClaims{
		Account: claims.Account,
		Admin:   claims.Admin,
	}, nil
}
