package utils

import (
	"errors"
	"time"

	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/internal/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	issuer           = "practice-arena"
	audienceSession  = "session"
	audienceQuestion = "question"
	questionTokenTTL = 24 * time.Hour
)

// Claims identify a login session. The JWT ID doubles as the session id.
type Claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

func (c *Claims) SessionID() string {
	return c.ID
}

// QuestionClaims let a client prove which question it was served when the
// server-side session copy has been lost.
type QuestionClaims struct {
	UserID     string `json:"userId"`
	QuestionID string `json:"questionId"`
	jwt.RegisteredClaims
}

func sign(claims jwt.Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(config.AppConfig.JWTSecret))
}

func keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, errors.New("unexpected signing method")
	}
	return []byte(config.AppConfig.JWTSecret), nil
}

// GenerateToken issues a session token and returns it with its session id.
func GenerateToken(userID string, ttl time.Duration) (string, string, error) {
	now := time.Now()
	sid := uuid.New().String()
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sid,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
			Audience:  jwt.ClaimStrings{audienceSession},
		},
	}
	signed, err := sign(claims)
	if err != nil {
		return "", "", err
	}
	return signed, sid, nil
}

func ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, keyFunc,
		jwt.WithIssuer(issuer), jwt.WithAudience(audienceSession))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

func GenerateQuestionToken(userID, questionID string) (string, error) {
	now := time.Now()
	return sign(&QuestionClaims{
		UserID:     userID,
		QuestionID: questionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(questionTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
			Audience:  jwt.ClaimStrings{audienceQuestion},
		},
	})
}

func ValidateQuestionToken(tokenString string) (*QuestionClaims, error) {
	claims := &QuestionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, keyFunc,
		jwt.WithIssuer(issuer), jwt.WithAudience(audienceQuestion))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
