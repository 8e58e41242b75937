package api

import "github.com/samcharles93/fxmif/internal/params"

type EncodeRequest struct {
	Value    *float64 `json:"value"`
	Format   string   `json:"format,omitempty"`
	Rounding string   `json:"rounding,omitempty"`
	Saturate bool     `json:"saturate,omitempty"`
}

type EncodeResponse struct {
	Format  string  `json:"format"`
	Code    uint64  `json:"code"`
	Bits    string  `json:"bits"`
	Signed  int64   `json:"signed"`
	Decoded float64 `json:"decoded"`
}

type ParamsResponse struct {
	Artifacts map[string]string `json:"artifacts"`
	Summary   params.Summary    `json:"summary"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

type ResponseError struct {
	Message string `json:"message,omitempty"`
	Type    string `json:"type,omitempty"`
}
