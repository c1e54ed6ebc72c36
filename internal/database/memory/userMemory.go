package memory

import (
	"context"
	"sort"

	"github.com/ds124wfegd/WB_L3/interview/internal/entity"
)

type candidateRepo struct {
	store *Store
	tx    *tx
}

func (r *candidateRepo) Create(ctx context.Context, c *entity.Candidate) error {
	if r.tx != nil {
		c.ID = r.store.nextID(&r.store.candidateSeq)
		c.CreatedAt = r.store.now()
		r.tx.candidates[c.ID] = *c
		return nil
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, existing := range r.store.candidates {
		if existing.Email == c.Email {
			return entity.ErrCandidateExists
		}
	}
	r.store.candidateSeq++
	c.ID = r.store.candidateSeq
	c.Version = 0
	c.CreatedAt = r.store.now()
	r.store.candidates[c.ID] = *c
	return nil
}

func (r *candidateRepo) GetByID(ctx context.Context, id int64) (*entity.Candidate, error) {
	var (
		c  entity.Candidate
		ok bool
	)
	if r.tx != nil {
		c, ok = r.tx.candidate(id)
	} else {
		r.store.mu.RLock()
		c, ok = r.store.candidates[id]
		r.store.mu.RUnlock()
	}
	if !ok {
		return nil, entity.NewNotFound("candidate")
	}
	return &c, nil
}

func (r *candidateRepo) GetByEmail(ctx context.Context, email string) (*entity.Candidate, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, c := range r.store.candidates {
		if c.Email == email {
			found := c
			return &found, nil
		}
	}
	return nil, entity.NewNotFound("candidate")
}

func (r *candidateRepo) UpdateContact(ctx context.Context, id int64, email, phone string) (*entity.Candidate, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	c, ok := r.store.candidates[id]
	if !ok {
		return nil, entity.NewNotFound("candidate")
	}
	if email != "" && email != c.Email {
		for otherID, other := range r.store.candidates {
			if otherID != id && other.Email == email {
				return nil, entity.ErrCandidateExists
			}
		}
		c.Email = email
	}
	if phone != "" {
		c.Phone = phone
	}
	r.store.candidates[id] = c
	return &c, nil
}

func (r *candidateRepo) ClaimBookingVersion(ctx context.Context, id, expected int64) error {
	if r.tx == nil {
		r.store.mu.Lock()
		defer r.store.mu.Unlock()

		c, ok := r.store.candidates[id]
		if !ok {
			return entity.NewNotFound("candidate")
		}
		if c.Version != expected {
			return entity.ErrVersionMismatch
		}
		c.Version++
		r.store.candidates[id] = c
		return nil
	}

	c, ok := r.tx.candidate(id)
	if !ok {
		return entity.NewNotFound("candidate")
	}
	if c.Version != expected {
		return entity.ErrVersionMismatch
	}
	if _, staged := r.tx.candidateBase[id]; !staged {
		r.tx.candidateBase[id] = c.Version
	}
	c.Version++
	r.tx.candidates[id] = c
	return nil
}

type interviewerRepo struct {
	store *Store
}

func (r *interviewerRepo) Create(ctx context.Context, i *entity.Interviewer) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, existing := range r.store.interviewers {
		if existing.Email == i.Email {
			return entity.ErrInterviewerExists
		}
	}
	r.store.interviewerSeq++
	i.ID = r.store.interviewerSeq
	i.CreatedAt = r.store.now()
	r.store.interviewers[i.ID] = *i
	return nil
}

func (r *interviewerRepo) GetByID(ctx context.Context, id int64) (*entity.Interviewer, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	i, ok := r.store.interviewers[id]
	if !ok {
		return nil, entity.NewNotFound("interviewer")
	}
	return &i, nil
}

func (r *interviewerRepo) GetAll(ctx context.Context) ([]*entity.Interviewer, error) {
	r.store.mu.RLock()
	out := make([]*entity.Interviewer, 0, len(r.store.interviewers))
	for _, i := range r.store.interviewers {
		interviewer := i
		out = append(out, &interviewer)
	}
	r.store.mu.RUnlock()

	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out, nil
}
