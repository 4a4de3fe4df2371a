package flows

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/flowsint/flowsint/internal/common"
	"github.com/flowsint/flowsint/internal/interfaces"
	"github.com/flowsint/flowsint/internal/models"
)

// Service manages flow persistence and compile-only computation
type Service struct {
	storage interfaces.FlowStorage
	logger  arbor.ILogger
}

// NewService creates a new flow service
func NewService(storage interfaces.FlowStorage, logger arbor.ILogger) *Service {
	return &Service{
		storage: storage,
		logger:  logger,
	}
}

// Create persists a new flow
func (s *Service) Create(ctx context.Context, name, description string, category []string, schema models.FlowSchema) (*models.Flow, error) {
	if name == "" {
		return nil, fmt.Errorf("flow name is required")
	}

	flow := &models.Flow{
		ID:          common.NewFlowID(),
		Name:        name,
		Description: description,
		Category:    category,
		FlowSchema:  schema,
	}
	if err := s.storage.SaveFlow(ctx, flow); err != nil {
		return nil, err
	}

	s.logger.Info().Str("flow_id", flow.ID).Str("name", flow.Name).Msg("Flow created")
	return flow, nil
}

// Get returns a flow by ID
func (s *Service) Get(ctx context.Context, id string) (*models.Flow, error) {
	return s.storage.GetFlow(ctx, id)
}

// List returns flows, optionally filtered by category. An empty or
// "undefined" category returns every flow; any other category keeps the
// flows whose category list contains it (case-insensitive).
func (s *Service) List(ctx context.Context, category string) ([]*models.Flow, error) {
	flows, err := s.storage.ListFlows(ctx)
	if err != nil {
		return nil, err
	}
	if category == "" || strings.EqualFold(category, "undefined") {
		return flows, nil
	}

	filtered := []*models.Flow{}
	for _, flow := range flows {
		for _, cat := range flow.Category {
			if strings.EqualFold(cat, category) {
				filtered = append(filtered, flow)
				break
			}
		}
	}
	return filtered, nil
}

// Update applies changed fields to a flow. A category list containing
// SocialAccount also gets Username so username flows show up next to the
// accounts they feed.
func (s *Service) Update(ctx context.Context, id string, name, description *string, category []string, schema *models.FlowSchema) (*models.Flow, error) {
	flow, err := s.storage.GetFlow(ctx, id)
	if err != nil {
		return nil, err
	}

	if name != nil {
		flow.Name = *name
	}
	if description != nil {
		flow.Description = *description
	}
	if category != nil {
		hasSocial := false
		hasUsername := false
		for _, cat := range category {
			if cat == "SocialAccount" {
				hasSocial = true
			}
			if cat == "Username" {
				hasUsername = true
			}
		}
		if hasSocial && !hasUsername {
			category = append(category, "Username")
		}
		flow.Category = category
	}
	if schema != nil {
		flow.FlowSchema = *schema
	}

	if err := s.storage.SaveFlow(ctx, flow); err != nil {
		return nil, err
	}
	return flow, nil
}

// Delete removes a flow
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.storage.DeleteFlow(ctx, id)
}

// Compute compiles a flow schema without executing it. Used by the editor's
// preview pane.
func (s *Service) Compute(nodes []models.FlowNode, edges []models.FlowEdge, inputType string) ([]models.FlowBranch, interface{}) {
	initialData := GenerateSampleData(inputType)
	branches := Compile(initialData, nodes, edges)
	return branches, initialData
}
