package jwtfactory

import (
	"strconv"
	"time"

	"github.com/go-chi/jwtauth/v5"
)

const (
	UserIDClaimName = "user_id"
	RoleClaimName   = "role"
)

type TokenFactory struct {
	tokenAuth           *jwtauth.JWTAuth
	tokenExpirationTime time.Duration
}

func New(tokenAuth *jwtauth.JWTAuth, tokenExpirationTime time.Duration) *TokenFactory {
	return &TokenFactory{
		tokenAuth:           tokenAuth,
		tokenExpirationTime: tokenExpirationTime,
	}
}

func (tf *TokenFactory) Generate(userID int, role string) (string, error) {
	timeNow := time.Now()
	claims := map[string]any{
		UserIDClaimName: strconv.Itoa(userID),
		RoleClaimName:   role,
		"exp":           timeNow.Add(tf.tokenExpirationTime).Unix(),
		"iat":           timeNow.Unix(),
	}
	_, tokenString, err := tf.tokenAuth.Encode(claims)
	return tokenString, err
}
