// Package policytypes manages policy type records and exposes the taxonomy
// operations performed over their structure.
package policytypes

import (
	"context"
	"fmt"
	"strings"

	"github.com/harborline/claimstack/internal/app/domain/policytype"
	"github.com/harborline/claimstack/internal/app/metrics"
	"github.com/harborline/claimstack/internal/app/storage"
	"github.com/harborline/claimstack/pkg/logger"
)

// Service manages policy types.
type Service struct {
	store  storage.PolicyTypeStore
	claims storage.ClaimStore
	log    *logger.Logger
}

// New constructs a policy type service. The claim store is only needed for
// analytics and may be nil in tests that do not exercise it.
func New(store storage.PolicyTypeStore, claims storage.ClaimStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("policytypes")
	}
	return &Service{store: store, claims: claims, log: log}
}

// StructureView is the flattened representation of a policy type's taxonomy.
type StructureView struct {
	PolicyTypeID string                `json:"policy_type_id"`
	Structure    []policytype.FlatNode `json:"structure"`
	TotalNodes   int                   `json:"total_nodes"`
}

// LeavesView lists only the terminal nodes of a taxonomy.
type LeavesView struct {
	PolicyTypeID string                `json:"policy_type_id"`
	Leaves       []policytype.FlatNode `json:"leaves"`
	TotalLeaves  int                   `json:"total_leaves"`
}

// Analytics combines structural complexity with claim volume.
type Analytics struct {
	PolicyTypeID string      `json:"policy_type_id"`
	Name         string      `json:"name"`
	LevelCounts  map[int]int `json:"level_counts"`
	TotalNodes   int         `json:"total_nodes"`
	MaxDepth     int         `json:"max_depth"`
	ClaimCount   int         `json:"claim_count"`
	ClaimShare   float64     `json:"claim_share_percent"`
}

// Create registers a policy type. A nil structure gets the default taxonomy;
// an explicit structure is validated first.
func (s *Service) Create(ctx context.Context, pt policytype.PolicyType) (policytype.PolicyType, error) {
	if strings.TrimSpace(pt.Name) == "" {
		return policytype.PolicyType{}, fmt.Errorf("name is required")
	}
	if pt.Structure == nil {
		pt.Structure = policytype.DefaultForest()
	} else if err := policytype.Validate(pt.Structure); err != nil {
		return policytype.PolicyType{}, err
	}

	created, err := s.store.CreatePolicyType(ctx, pt)
	if err != nil {
		return policytype.PolicyType{}, err
	}
	s.log.WithField("policy_type_id", created.ID).Info("policy type created")
	return created, nil
}

// Update replaces a policy type's name, description and structure. The
// structure is re-validated before the whole record is rewritten.
func (s *Service) Update(ctx context.Context, pt policytype.PolicyType) (policytype.PolicyType, error) {
	if pt.ID == "" {
		return policytype.PolicyType{}, fmt.Errorf("id is required")
	}
	if strings.TrimSpace(pt.Name) == "" {
		return policytype.PolicyType{}, fmt.Errorf("name is required")
	}
	if err := policytype.Validate(pt.Structure); err != nil {
		return policytype.PolicyType{}, err
	}
	return s.store.UpdatePolicyType(ctx, pt)
}

// Get returns a policy type by id.
func (s *Service) Get(ctx context.Context, id string) (policytype.PolicyType, error) {
	return s.store.GetPolicyType(ctx, id)
}

// List returns all policy types.
func (s *Service) List(ctx context.Context) ([]policytype.PolicyType, error) {
	return s.store.ListPolicyTypes(ctx)
}

// Search filters policy types by recursive label match over their structure,
// then applies pagination. Filtering happens in memory, after the fetch.
func (s *Service) Search(ctx context.Context, term string, page storage.Page) ([]policytype.PolicyType, error) {
	all, err := s.store.ListPolicyTypes(ctx)
	if err != nil {
		return nil, err
	}
	metrics.RecordTreeOp("search")

	matched := all[:0:0]
	for _, pt := range all {
		if policytype.MatchesTerm(pt.Structure, term) {
			matched = append(matched, pt)
		}
	}

	if page.Offset >= len(matched) {
		return []policytype.PolicyType{}, nil
	}
	matched = matched[page.Offset:]
	if page.Limit > 0 && page.Limit < len(matched) {
		matched = matched[:page.Limit]
	}
	return matched, nil
}

// Delete removes a policy type and with it the owned taxonomy.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.DeletePolicyType(ctx, id); err != nil {
		return err
	}
	s.log.WithField("policy_type_id", id).Info("policy type deleted")
	return nil
}

// Structure returns the pre-order flattening of a policy type's taxonomy.
func (s *Service) Structure(ctx context.Context, id string) (StructureView, error) {
	pt, err := s.store.GetPolicyType(ctx, id)
	if err != nil {
		return StructureView{}, err
	}
	flat := policytype.Flatten(pt.Structure)
	metrics.RecordTreeOp("flatten")
	return StructureView{PolicyTypeID: pt.ID, Structure: flat, TotalNodes: len(flat)}, nil
}

// Leaves returns only the terminal nodes of a policy type's taxonomy.
func (s *Service) Leaves(ctx context.Context, id string) (LeavesView, error) {
	pt, err := s.store.GetPolicyType(ctx, id)
	if err != nil {
		return LeavesView{}, err
	}
	leaves := policytype.Leaves(pt.Structure)
	metrics.RecordTreeOp("leaves")
	return LeavesView{PolicyTypeID: pt.ID, Leaves: leaves, TotalLeaves: len(leaves)}, nil
}

// ResolvePath resolves a raw ">"-delimited path against a policy type's
// taxonomy. Resolution failures surface policytype.ErrPathNotFound.
func (s *Service) ResolvePath(ctx context.Context, id, rawPath string) (policytype.Node, error) {
	segments := policytype.ParsePath(rawPath)
	if len(segments) == 0 {
		return policytype.Node{}, fmt.Errorf("path is required")
	}

	pt, err := s.store.GetPolicyType(ctx, id)
	if err != nil {
		return policytype.Node{}, err
	}
	metrics.RecordTreeOp("resolve")
	return policytype.FindByPath(pt.Structure, segments)
}

// InsertNode adds a node to a policy type's taxonomy, at the root when
// rawParentPath is blank. The mutated forest replaces the stored structure
// in one whole-record write; a failed insertion changes nothing.
func (s *Service) InsertNode(ctx context.Context, id string, node policytype.Node, rawParentPath string) (policytype.PolicyType, error) {
	if strings.TrimSpace(node.Label) == "" {
		return policytype.PolicyType{}, fmt.Errorf("%w: label is required", policytype.ErrInvalidNode)
	}
	if err := policytype.Validate(policytype.Forest{node}); err != nil {
		return policytype.PolicyType{}, err
	}

	pt, err := s.store.GetPolicyType(ctx, id)
	if err != nil {
		return policytype.PolicyType{}, err
	}

	next, err := policytype.Insert(pt.Structure, node, policytype.ParsePath(rawParentPath))
	if err != nil {
		return policytype.PolicyType{}, err
	}
	metrics.RecordTreeOp("insert")

	pt.Structure = next
	updated, err := s.store.UpdatePolicyType(ctx, pt)
	if err != nil {
		return policytype.PolicyType{}, err
	}
	s.log.WithFields(map[string]interface{}{
		"policy_type_id": id,
		"label":          node.Label,
	}).Info("taxonomy node inserted")
	return updated, nil
}

// Analytics reports per-level node counts alongside claim volume for one
// policy type.
func (s *Service) Analytics(ctx context.Context, id string) (Analytics, error) {
	pt, err := s.store.GetPolicyType(ctx, id)
	if err != nil {
		return Analytics{}, err
	}

	stats := policytype.CountByLevel(pt.Structure)
	metrics.RecordTreeOp("analytics")

	out := Analytics{
		PolicyTypeID: pt.ID,
		Name:         pt.Name,
		LevelCounts:  stats.Counts,
		TotalNodes:   stats.TotalNodes,
		MaxDepth:     stats.MaxDepth,
	}

	if s.claims != nil {
		counts, err := s.claims.CountClaimsByPolicyType(ctx)
		if err != nil {
			return Analytics{}, err
		}
		total := 0
		for _, n := range counts {
			total += n
		}
		out.ClaimCount = counts[pt.ID]
		if total > 0 {
			out.ClaimShare = float64(out.ClaimCount) / float64(total) * 100
		}
	}
	return out, nil
}
