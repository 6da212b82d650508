// Package inbound defines the interfaces for inbound ports (primary/driving adapters)
// These are the interfaces that the application exposes to the outside world
package inbound

import (
	"context"

	"github.com/nutriplan/dietai/internal/domain/diet"
)

// DietService defines the use cases of the diet gateway
// This is the primary port that HTTP handlers use
type DietService interface {
	GenerateDiet(ctx context.Context, req diet.DietRequest) (diet.PlanResult, error)
	Ask(ctx context.Context, req diet.AskRequest) (diet.AskResponse, error)
	ListModels(ctx context.Context) (diet.ModelList, error)
}
