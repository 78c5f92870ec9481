package domain

import (
	"context"

	"gitpulse/internal/core/category"
)

// Oracle is the last resort classifier, it must never fail
type Oracle interface {
	Classify(ctx context.Context, message string) category.Category
}

// ClassifierPort is the public port exposed by the module
type ClassifierPort interface {
	Classify(ctx context.Context, in Input) Result
	ClassifyBatch(ctx context.Context, in []Input) ([]category.Category, error)
	ClassifyBatchDetailed(ctx context.Context, in []Input) ([]Result, error)
}
