package handler

import (
	"time"

	"ucm/internal/consent"
	"ucm/internal/consent/models"
	"ucm/pkg/domain"
)

// RecordResponse is the consent submission response body.
type RecordResponse struct {
	ConsentID string          `json:"consentId"`
	Region    string          `json:"region"`
	Framework string          `json:"framework"`
	GPC       bool            `json:"gpc"`
	GCMFlags  domain.GCMFlags `json:"gcmFlags"`
	SavedAt   time.Time       `json:"savedAt"`
	Signature string          `json:"signature"`
}

// FromResult converts a consent result to the submission wire form.
func FromResult(result *consent.Result) RecordResponse {
	return RecordResponse{
		ConsentID: result.Record.ID.String(),
		Region:    string(result.Record.Region),
		Framework: string(result.Record.Framework),
		GPC:       result.Record.GPC,
		GCMFlags:  result.Flags,
		SavedAt:   result.Record.CreatedAt,
		Signature: result.Signature,
	}
}

// ReceiptResponse extends the submission response with the stored choices.
type ReceiptResponse struct {
	RecordResponse
	Choices []models.Choice `json:"choices"`
}

// ReceiptFromResult converts a consent result to the receipt wire form.
func ReceiptFromResult(result *consent.Result) ReceiptResponse {
	return ReceiptResponse{
		RecordResponse: FromResult(result),
		Choices:        result.Record.Choices,
	}
}
