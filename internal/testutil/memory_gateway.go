package testutil

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/google/uuid"

	domain "github.com/hireloop/resume-import/internal/domain/resumeimport"
)

type StoredCandidate struct {
	ID             string
	OrganizationID string
	Fields         domain.ExtractedFields
	Skills         []string
}

type StoredResume struct {
	ID           string
	CandidateID  string
	ContentHash  string
	Meta         domain.FileMeta
	QualityScore *int
}

type gatewayState struct {
	candidates map[string]StoredCandidate
	resumes    map[string]StoredResume // keyed by content hash
	links      map[string]string       // candidate|org -> link type
}

func (s gatewayState) clone() gatewayState {
	return gatewayState{
		candidates: maps.Clone(s.candidates),
		resumes:    maps.Clone(s.resumes),
		links:      maps.Clone(s.links),
	}
}

// MemoryGateway implements domain.PersistenceGateway. Resume content hashes
// are unique, like the database constraint, and WithinTx rolls back on error.
type MemoryGateway struct {
	mu    sync.Mutex
	txMu  sync.Mutex
	state gatewayState

	// BeforeCreateResume runs inside CreateResume and may inject failures.
	BeforeCreateResume func(hash string) error
	// LookupErr is returned by FindExistingResumeByHash when set.
	LookupErr error
}

func NewMemoryGateway() *MemoryGateway {
	return &MemoryGateway{state: gatewayState{
		candidates: make(map[string]StoredCandidate),
		resumes:    make(map[string]StoredResume),
		links:      make(map[string]string),
	}}
}

func (g *MemoryGateway) Candidates() []StoredCandidate {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]StoredCandidate, 0, len(g.state.candidates))
	for _, c := range g.state.candidates {
		out = append(out, c)
	}
	return out
}

func (g *MemoryGateway) Resumes() map[string]StoredResume {
	g.mu.Lock()
	defer g.mu.Unlock()
	return maps.Clone(g.state.resumes)
}

// LinkType returns the link type recorded for a candidate and organisation.
func (g *MemoryGateway) LinkType(candidateID, organizationID string) (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	lt, ok := g.state.links[candidateID+"|"+organizationID]
	return lt, ok
}

func (g *MemoryGateway) CreateCandidate(_ context.Context, organizationID string, fields domain.ExtractedFields) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := uuid.NewString()
	g.state.candidates[id] = StoredCandidate{ID: id, OrganizationID: organizationID, Fields: fields}
	g.state.links[id+"|"+organizationID] = "sourced"
	return id, nil
}

func (g *MemoryGateway) AttachSkills(_ context.Context, candidateID string, skills []string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	c, ok := g.state.candidates[candidateID]
	if !ok {
		return domain.NewPersistenceError("attach_skills", fmt.Errorf("candidate %s not found", candidateID))
	}
	c.Skills = append(c.Skills, skills...)
	g.state.candidates[candidateID] = c
	return nil
}

func (g *MemoryGateway) CreateResume(_ context.Context, candidateID, contentHash string, meta domain.FileMeta, qualityScore *int) (string, error) {
	if g.BeforeCreateResume != nil {
		if err := g.BeforeCreateResume(contentHash); err != nil {
			return "", err
		}
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.state.resumes[contentHash]; ok {
		return "", domain.ErrDuplicateContent
	}
	id := uuid.NewString()
	g.state.resumes[contentHash] = StoredResume{
		ID:           id,
		CandidateID:  candidateID,
		ContentHash:  contentHash,
		Meta:         meta,
		QualityScore: qualityScore,
	}
	return id, nil
}

func (g *MemoryGateway) FindExistingResumeByHash(_ context.Context, hash string) (*domain.ExistingResume, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.LookupErr != nil {
		return nil, g.LookupErr
	}
	r, ok := g.state.resumes[hash]
	if !ok {
		return nil, nil
	}
	return &domain.ExistingResume{ResumeID: r.ID, CandidateID: r.CandidateID}, nil
}

// LinkCandidateToOrganization keeps the type of an existing link.
func (g *MemoryGateway) LinkCandidateToOrganization(_ context.Context, candidateID, organizationID, linkType string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	key := candidateID + "|" + organizationID
	if _, ok := g.state.links[key]; !ok {
		g.state.links[key] = linkType
	}
	return nil
}

// WithinTx serialises transactions and restores the previous state when fn
// fails.
func (g *MemoryGateway) WithinTx(_ context.Context, fn func(tx domain.PersistenceGateway) error) error {
	g.txMu.Lock()
	defer g.txMu.Unlock()

	g.mu.Lock()
	snapshot := g.state.clone()
	g.mu.Unlock()

	if err := fn(g); err != nil {
		g.mu.Lock()
		g.state = snapshot
		g.mu.Unlock()
		return err
	}
	return nil
}
