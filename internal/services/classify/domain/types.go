// Package domain holds the classification types and ports
package domain

import "gitpulse/internal/core/category"

// Stage names the cascade stage that produced a result
type Stage string

const (
	// StageFiles is the file extension heuristic
	StageFiles Stage = "files"
	// StagePattern is the message pattern classifier
	StagePattern Stage = "pattern"
	// StageOracle is the language model oracle
	StageOracle Stage = "oracle"
	// StageFallback marks an oracle escalation that fell back to the fast path
	StageFallback Stage = "fallback"
)

// Input is one commit to classify
type Input struct {
	Message string   `json:"message" validate:"max=65536"`
	Files   []string `json:"files,omitempty" validate:"max=5000"`
}

// Result is a category plus the stage that decided it
type Result struct {
	Category category.Category `json:"category"`
	Stage    Stage             `json:"stage"`
}

// BatchInput is the request body of the batch endpoint
type BatchInput struct {
	Items []Input `json:"items" validate:"required,min=1,max=1000,dive"`
}

// BatchOutput is index aligned with BatchInput.Items
type BatchOutput struct {
	Categories []category.Category `json:"categories"`
	Stages     []Stage             `json:"stages,omitempty"`
}
