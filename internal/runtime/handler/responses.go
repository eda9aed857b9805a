package handler

import (
	"ucm/internal/runtime"
	"ucm/pkg/domain"
)

// PurposeResponse is the wire form of a consent purpose shown in the UI.
type PurposeResponse struct {
	Key         string `json:"key"`
	Label       string `json:"label"`
	Description string `json:"description"`
	Default     bool   `json:"default"`
	Required    bool   `json:"required"`
}

// UIResponse carries the banner copy and the purpose list.
type UIResponse struct {
	Title    string            `json:"title"`
	Text     string            `json:"text"`
	Locale   string            `json:"locale"`
	Purposes []PurposeResponse `json:"purposes"`
}

// ConfigResponse is the runtime endpoint response body.
type ConfigResponse struct {
	Region         string          `json:"region"`
	Framework      string          `json:"framework"`
	GPCActive      bool            `json:"gpcActive"`
	GCM            domain.GCMFlags `json:"gcm"`
	UI             UIResponse      `json:"ui"`
	AllowedVendors []string        `json:"allowedVendors"`
}

// FromConfig converts a resolved runtime config to its wire form.
func FromConfig(cfg runtime.Config) ConfigResponse {
	purposes := make([]PurposeResponse, 0, len(cfg.Purposes))
	for _, p := range cfg.Purposes {
		purposes = append(purposes, PurposeResponse{
			Key:         p.Key,
			Label:       p.Label,
			Description: p.Description,
			Default:     p.DefaultGranted,
			Required:    p.Required,
		})
	}
	vendors := make([]string, 0, len(cfg.AllowedVendors))
	for _, id := range cfg.AllowedVendors {
		vendors = append(vendors, string(id))
	}
	return ConfigResponse{
		Region:    string(cfg.Region),
		Framework: string(cfg.Framework),
		GPCActive: cfg.GPCActive,
		GCM:       cfg.GCM(),
		UI: UIResponse{
			Title:    cfg.Title,
			Text:     cfg.Text,
			Locale:   cfg.Locale,
			Purposes: purposes,
		},
		AllowedVendors: vendors,
	}
}
