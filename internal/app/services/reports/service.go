// Package reports aggregates per-policy-type analytics for the whole
// collection and keeps the report gauges fresh in the background.
package reports

import (
	"context"

	"github.com/harborline/claimstack/internal/app/domain/policytype"
	"github.com/harborline/claimstack/internal/app/metrics"
	"github.com/harborline/claimstack/internal/app/storage"
	"github.com/harborline/claimstack/pkg/logger"
)

// PolicyTypeReport is one row of the overview report.
type PolicyTypeReport struct {
	PolicyTypeID string  `json:"policy_type_id"`
	Name         string  `json:"name"`
	TotalNodes   int     `json:"total_nodes"`
	MaxDepth     int     `json:"max_depth"`
	ClaimCount   int     `json:"claim_count"`
	ClaimShare   float64 `json:"claim_share_percent"`
}

// Service computes cross-record reports.
type Service struct {
	policyTypes storage.PolicyTypeStore
	claims      storage.ClaimStore
	log         *logger.Logger
}

// New constructs a report service.
func New(policyTypes storage.PolicyTypeStore, claims storage.ClaimStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("reports")
	}
	return &Service{policyTypes: policyTypes, claims: claims, log: log}
}

// Overview combines structural complexity with claim volume for every
// policy type. Ordering follows the policy type listing.
func (s *Service) Overview(ctx context.Context) ([]PolicyTypeReport, error) {
	types, err := s.policyTypes.ListPolicyTypes(ctx)
	if err != nil {
		return nil, err
	}
	counts, err := s.claims.CountClaimsByPolicyType(ctx)
	if err != nil {
		return nil, err
	}

	totalClaims := 0
	for _, n := range counts {
		totalClaims += n
	}

	result := make([]PolicyTypeReport, 0, len(types))
	for _, pt := range types {
		stats := policytype.CountByLevel(pt.Structure)
		row := PolicyTypeReport{
			PolicyTypeID: pt.ID,
			Name:         pt.Name,
			TotalNodes:   stats.TotalNodes,
			MaxDepth:     stats.MaxDepth,
			ClaimCount:   counts[pt.ID],
		}
		if totalClaims > 0 {
			row.ClaimShare = float64(row.ClaimCount) / float64(totalClaims) * 100
		}
		result = append(result, row)
	}
	return result, nil
}

// Publish recomputes the overview and pushes it into the report gauges.
func (s *Service) Publish(ctx context.Context) error {
	rows, err := s.Overview(ctx)
	if err != nil {
		return err
	}
	for _, row := range rows {
		metrics.SetPolicyTypeReport(row.Name, row.TotalNodes, row.ClaimShare)
	}
	return nil
}
