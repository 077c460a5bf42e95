package services

import (
	"context"
	"strings"

	"github.com/shashiranjanraj/sehatly/app/models"
	"github.com/shashiranjanraj/sehatly/pkg/apperr"
)

// PairStore is the slice of the incompatible repository the checker needs.
type PairStore interface {
	All(ctx context.Context) ([]models.Incompatible, error)
	Create(ctx context.Context, pair *models.Incompatible) error
}

// IncompatibleService answers "can these drugs be taken together".
type IncompatibleService struct {
	pairs PairStore
}

func NewIncompatibleService(pairs PairStore) *IncompatibleService {
	return &IncompatibleService{pairs: pairs}
}

// CheckResult reports conflicting drug pairs found in a cart. Pairs
// is always present in the JSON body, empty when nothing conflicts.
type CheckResult struct {
	Conflict bool        `json:"conflict"`
	Pairs    [][2]string `json:"pairs"`
}

// Check tests every pair of drug names in the cart against the known
// incompatibilities. Matching is case-insensitive and symmetric:
// (A, B) conflicts whenever (B, A) is recorded.
func (s *IncompatibleService) Check(ctx context.Context, drugs []string) (CheckResult, error) {
	result := CheckResult{Pairs: [][2]string{}}
	if len(drugs) < 2 {
		return result, nil
	}

	known, err := s.pairs.All(ctx)
	if err != nil {
		return CheckResult{}, err
	}

	// Index both orientations so each cart pair is one lookup.
	index := make(map[[2]string]bool, len(known)*2)
	for _, p := range known {
		a, b := normalize(p.DrugA), normalize(p.DrugB)
		index[[2]string{a, b}] = true
		index[[2]string{b, a}] = true
	}

	for i := 0; i < len(drugs); i++ {
		for j := i + 1; j < len(drugs); j++ {
			if index[[2]string{normalize(drugs[i]), normalize(drugs[j])}] {
				result.Pairs = append(result.Pairs, [2]string{drugs[i], drugs[j]})
			}
		}
	}
	result.Conflict = len(result.Pairs) > 0
	return result, nil
}

// AddPairInput is the admin payload for recording an incompatibility.
type AddPairInput struct {
	DrugA string `json:"drugA" validate:"required"`
	DrugB string `json:"drugB" validate:"required"`
}

// AddPair records a new incompatible pair.
func (s *IncompatibleService) AddPair(ctx context.Context, in AddPairInput) (models.Incompatible, error) {
	if normalize(in.DrugA) == normalize(in.DrugB) {
		return models.Incompatible{}, apperr.New(apperr.Validation, "A drug cannot conflict with itself")
	}
	pair := models.Incompatible{
		DrugA: strings.TrimSpace(in.DrugA),
		DrugB: strings.TrimSpace(in.DrugB),
	}
	if err := s.pairs.Create(ctx, &pair); err != nil {
		return models.Incompatible{}, err
	}
	return pair, nil
}

// AllPairs lists every recorded incompatibility.
func (s *IncompatibleService) AllPairs(ctx context.Context) ([]models.Incompatible, error) {
	return s.pairs.All(ctx)
}

func normalize(drug string) string {
	return strings.ToLower(strings.TrimSpace(drug))
}
