package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"complyform/internal/compliance"
	"complyform/internal/sentinel"
	"complyform/models"
)

// Store хранилище в памяти для прогонов валидации и оценок.
// Прогоны по одной заявке сериализуются шардированными мьютексами, как в Postgres advisory lock.
type Store struct {
	mu sync.RWMutex

	nextID        int
	organizations map[int]models.Organization
	bids          map[int]models.Bid
	lineItems     map[int][]models.LineItem
	subs          map[int]models.Subcontractor
	directory     map[int]models.DirectoryRecord
	jurisdictions map[int]models.Jurisdiction
	rules         map[int]models.ComplianceRule
	results       map[int][]models.ValidationResult
	opportunities map[int]models.Opportunity
	assessments   []models.Assessment

	shards [numShards]sync.Mutex
}

const numShards = 64

func New() *Store {
	return &Store{
		organizations: map[int]models.Organization{},
		bids:          map[int]models.Bid{},
		lineItems:     map[int][]models.LineItem{},
		subs:          map[int]models.Subcontractor{},
		directory:     map[int]models.DirectoryRecord{},
		jurisdictions: map[int]models.Jurisdiction{},
		rules:         map[int]models.ComplianceRule{},
		results:       map[int][]models.ValidationResult{},
		opportunities: map[int]models.Opportunity{},
	}
}

func (s *Store) id() int {
	s.nextID++
	return s.nextID
}

func (s *Store) CreateOrganization(_ context.Context, o *models.Organization) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o.ID = s.id()
	o.CreatedAt = time.Now().UTC()
	s.organizations[o.ID] = *o
	return nil
}

func (s *Store) CreateBid(_ context.Context, b *models.Bid) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b.ID = s.id()
	b.CreatedAt = time.Now().UTC()
	stored := *b
	stored.LineItems = nil
	s.bids[b.ID] = stored
	return nil
}

// UpdateBid не меняет суммы у проверенной заявки, результаты иначе устареют
func (s *Store) UpdateBid(_ context.Context, b *models.Bid) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.bids[b.ID]
	if !ok {
		return fmt.Errorf("bid %d: %w", b.ID, sentinel.ErrNotFound)
	}
	if cur.Validated() && (!cur.TotalAmount.Equal(b.TotalAmount) || !cur.MBEGoal.Equal(b.MBEGoal)) {
		return fmt.Errorf("bid %d already validated: %w", b.ID, sentinel.ErrInvalidState)
	}
	cur.SolicitationNumber = b.SolicitationNumber
	cur.TotalAmount = b.TotalAmount
	cur.MBEGoal = b.MBEGoal
	s.bids[b.ID] = cur
	return nil
}

func (s *Store) AddLineItem(_ context.Context, item *models.LineItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bids[item.BidID]; !ok {
		return fmt.Errorf("bid %d: %w", item.BidID, sentinel.ErrNotFound)
	}
	item.ID = s.id()
	s.lineItems[item.BidID] = append(s.lineItems[item.BidID], *item)
	return nil
}

func (s *Store) CreateSubcontractor(_ context.Context, sub *models.Subcontractor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub.ID = s.id()
	sub.CreatedAt = time.Now().UTC()
	s.subs[sub.ID] = *sub
	return nil
}

func (s *Store) CreateDirectoryEntry(_ context.Context, rec *models.DirectoryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.directory {
		if existing.LegalName == rec.LegalName {
			return fmt.Errorf("directory entry %q: %w", rec.LegalName, sentinel.ErrConflict)
		}
	}
	rec.ID = s.id()
	rec.CreatedAt = time.Now().UTC()
	s.directory[rec.ID] = *rec
	return nil
}

func (s *Store) UpdateDirectoryEntry(_ context.Context, rec *models.DirectoryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.directory[rec.ID]; !ok {
		return fmt.Errorf("directory entry %d: %w", rec.ID, sentinel.ErrNotFound)
	}
	s.directory[rec.ID] = *rec
	return nil
}

func (s *Store) CreateJurisdiction(_ context.Context, j *models.Jurisdiction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	j.ID = s.id()
	s.jurisdictions[j.ID] = *j
	return nil
}

func (s *Store) CreateComplianceRule(_ context.Context, r *models.ComplianceRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jurisdictions[r.JurisdictionID]
	if !ok {
		return fmt.Errorf("jurisdiction %d: %w", r.JurisdictionID, sentinel.ErrNotFound)
	}
	r.ID = s.id()
	r.JurisdictionCode = j.Code
	r.CreatedAt = time.Now().UTC()
	s.rules[r.ID] = *r
	return nil
}

func (s *Store) CreateOpportunity(_ context.Context, o *models.Opportunity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o.ID = s.id()
	o.CreatedAt = time.Now().UTC()
	s.opportunities[o.ID] = *o
	return nil
}

// Directory

func (s *Store) GetDirectoryEntry(_ context.Context, id int) (*models.DirectoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.directory[id]
	if !ok {
		return nil, fmt.Errorf("directory entry %d: %w", id, sentinel.ErrNotFound)
	}
	return &rec, nil
}

func (s *Store) GetDirectoryEntryByName(_ context.Context, legalName string) (*models.DirectoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rec := range s.directory {
		if rec.LegalName == legalName {
			r := rec
			return &r, nil
		}
	}
	return nil, fmt.Errorf("directory entry %q: %w", legalName, sentinel.ErrNotFound)
}

func (s *Store) FindMatchingDirectoryEntries(_ context.Context, f models.MatchFilter) ([]models.DirectoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.DirectoryRecord
	for _, rec := range s.directory {
		if matches(rec, f) {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, k int) bool {
		if !out[i].Rating.Equal(out[k].Rating) {
			return out[i].Rating.GreaterThan(out[k].Rating)
		}
		if out[i].ProjectsCompleted != out[k].ProjectsCompleted {
			return out[i].ProjectsCompleted > out[k].ProjectsCompleted
		}
		return out[i].ID < out[k].ID
	})
	return out, nil
}

func matches(rec models.DirectoryRecord, f models.MatchFilter) bool {
	if len(f.NAICSCodes) > 0 {
		overlap := false
		for _, code := range f.NAICSCodes {
			if rec.HasNAICS(code) {
				overlap = true
				break
			}
		}
		if !overlap {
			return false
		}
	}
	if f.JurisdictionCode != "" && !contains(rec.JurisdictionCodes, f.JurisdictionCode) {
		return false
	}
	if f.Category != "" && !rec.Certifications.Has(f.Category) {
		return false
	}
	return rec.Rating.GreaterThanOrEqual(f.MinRating)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// Assessment

func (s *Store) GetOpportunity(_ context.Context, id int) (*models.Opportunity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.opportunities[id]
	if !ok {
		return nil, fmt.Errorf("opportunity %d: %w", id, sentinel.ErrNotFound)
	}
	if o.JurisdictionID != nil {
		if j, ok := s.jurisdictions[*o.JurisdictionID]; ok {
			o.JurisdictionCode = j.Code
		}
	}
	return &o, nil
}

func (s *Store) CreateAssessment(_ context.Context, a *models.Assessment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = s.id()
	stored := *a
	stored.RiskFactors = nil
	stored.MatchingSubcontractors = nil
	s.assessments = append(s.assessments, stored)
	return nil
}

func (s *Store) ListAssessmentsByOrganization(_ context.Context, orgID int) ([]models.Assessment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Assessment
	for i := len(s.assessments) - 1; i >= 0; i-- {
		if s.assessments[i].OrganizationID == orgID {
			out = append(out, s.assessments[i])
		}
	}
	return out, nil
}

// RunInTx выполняет fn под блокировкой шарда заявки. Записи копятся в txView
// и применяются только при успешном завершении fn.
func (s *Store) RunInTx(ctx context.Context, bidID int, fn func(compliance.Store) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("transaction aborted: %w", err)
	}
	shard := &s.shards[uint(bidID)%numShards]
	shard.Lock()
	defer shard.Unlock()

	view := &txView{base: s}
	if err := fn(view); err != nil {
		return err
	}
	s.commit(view)
	return nil
}

func (s *Store) commit(v *txView) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, bidID := range v.deleted {
		delete(s.results, bidID)
	}
	for _, r := range v.inserted {
		s.results[r.BidID] = append(s.results[r.BidID], r)
	}
	for _, bidID := range v.validated {
		b := s.bids[bidID]
		now := time.Now().UTC()
		b.ValidatedAt = &now
		s.bids[bidID] = b
	}
}

type txView struct {
	base      *Store
	deleted   []int
	inserted  []models.ValidationResult
	validated []int
}

func (v *txView) GetBidWithLineItems(_ context.Context, bidID int) (*models.Bid, error) {
	v.base.mu.RLock()
	defer v.base.mu.RUnlock()
	b, ok := v.base.bids[bidID]
	if !ok {
		return nil, fmt.Errorf("bid %d: %w", bidID, sentinel.ErrNotFound)
	}
	b.LineItems = append([]models.LineItem(nil), v.base.lineItems[bidID]...)
	return &b, nil
}

func (v *txView) GetSubcontractor(_ context.Context, id int) (*models.Subcontractor, error) {
	v.base.mu.RLock()
	defer v.base.mu.RUnlock()
	sub, ok := v.base.subs[id]
	if !ok {
		return nil, fmt.Errorf("subcontractor %d: %w", id, sentinel.ErrNotFound)
	}
	return &sub, nil
}

func (v *txView) GetJurisdictionsByCodes(_ context.Context, codes []string) ([]models.Jurisdiction, error) {
	v.base.mu.RLock()
	defer v.base.mu.RUnlock()
	var out []models.Jurisdiction
	for _, j := range v.base.jurisdictions {
		if contains(codes, j.Code) {
			out = append(out, j)
		}
	}
	return out, nil
}

func (v *txView) GetRulesByJurisdictionIDs(_ context.Context, ids []int) ([]models.ComplianceRule, error) {
	v.base.mu.RLock()
	defer v.base.mu.RUnlock()
	want := map[int]bool{}
	for _, id := range ids {
		want[id] = true
	}
	var out []models.ComplianceRule
	for _, r := range v.base.rules {
		if want[r.JurisdictionID] {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].ID < out[k].ID })
	return out, nil
}

func (v *txView) DeleteValidationResults(_ context.Context, bidID int) error {
	v.deleted = append(v.deleted, bidID)
	v.inserted = nil
	return nil
}

// InsertValidationResults выдаёт id сразу, как sequence в Postgres: откат их не возвращает
func (v *txView) InsertValidationResults(_ context.Context, results []models.ValidationResult) error {
	v.base.mu.Lock()
	for i := range results {
		results[i].ID = v.base.id()
	}
	v.base.mu.Unlock()
	v.inserted = append(v.inserted, results...)
	return nil
}

func (v *txView) MarkBidValidated(_ context.Context, bidID int) error {
	v.validated = append(v.validated, bidID)
	return nil
}

func (v *txView) GetValidationResults(_ context.Context, bidID int) ([]models.ValidationResult, error) {
	v.base.mu.RLock()
	defer v.base.mu.RUnlock()
	return append([]models.ValidationResult(nil), v.base.results[bidID]...), nil
}
