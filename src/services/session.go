package services

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/username/mgscheck/src/uuidcodec"
)

var ErrNoUserID = errors.New("session has no user id")

// Session is the logged-in gateway user.
type Session struct {
	Token    string
	UserID   string
	UserName string
}

// NewSession builds a session from the gateway token. The user id is read
// from the token's "sub" claim unless userID is given. The token signature
// is not verified: the gateway is the issuer and the only consumer.
func NewSession(token, userName, userID string) (*Session, error) {
	s := &Session{Token: token, UserName: userName, UserID: userID}
	if s.UserID != "" {
		return s, nil
	}
	if token == "" {
		return nil, ErrNoUserID
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("read session token claims: %w", err)
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, ErrNoUserID
	}
	s.UserID = sub
	return s, nil
}

type authDetails struct {
	Customer struct {
		UserID   string `json:"userId"`
		UserName string `json:"userName"`
	} `json:"customer"`
	Anon bool `json:"anon"`
}

// AuthDetails returns the x-et-auth-details header value used on direct node
// calls: the base64 of {"customer":{"userId","userName"},"anon":false}.
func (s *Session) AuthDetails() (string, error) {
	var d authDetails
	d.Customer.UserID = s.UserID
	d.Customer.UserName = s.UserName
	data, err := json.Marshal(d)
	if err != nil {
		return "", err
	}
	return uuidcodec.EncodeString(string(data)), nil
}
