package consent

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"ucm/internal/consent/models"
)

// ReceiptSigner issues tamper-evident consent receipts. The receipt is an
// HS256 JWS over the record's identifying fields so a visitor can later prove
// what was recorded without the server trusting client-held state.
type ReceiptSigner struct {
	key []byte
}

func NewReceiptSigner(key string) *ReceiptSigner {
	return &ReceiptSigner{key: []byte(key)}
}

type receiptClaims struct {
	Region    string          `json:"region"`
	GPC       bool            `json:"gpc"`
	Framework string          `json:"framework"`
	Choices   []models.Choice `json:"choices"`
	jwt.RegisteredClaims
}

// Sign produces the receipt token for a record.
func (s *ReceiptSigner) Sign(record *models.Record) (string, error) {
	claims := receiptClaims{
		Region:    string(record.Region),
		GPC:       record.GPC,
		Framework: string(record.Framework),
		Choices:   record.Choices,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   "ucm",
			Subject:  record.ID.String(),
			IssuedAt: jwt.NewNumericDate(record.CreatedAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sign consent receipt: %w", err)
	}
	return token, nil
}

// Verify parses and validates a receipt token, returning the consent ID it
// attests to.
func (s *ReceiptSigner) Verify(token string) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &receiptClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.key, nil
	})
	if err != nil {
		return "", fmt.Errorf("verify consent receipt: %w", err)
	}
	claims, ok := parsed.Claims.(*receiptClaims)
	if !ok || !parsed.Valid {
		return "", fmt.Errorf("invalid consent receipt")
	}
	return claims.Subject, nil
}
