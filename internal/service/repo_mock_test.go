package service

import (
	"context"
	"sort"
	"time"

	"alcyxob/wellness-app/internal/domain"
	"alcyxob/wellness-app/internal/planner"
	"alcyxob/wellness-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type assignmentRepoMock struct {
	assignments   map[primitive.ObjectID]*domain.Assignment
	updatePlanErr error
	// onUpdatePlan runs before the version check, to simulate a concurrent writer
	onUpdatePlan func()
}

func newAssignmentRepoMock() *assignmentRepoMock {
	return &assignmentRepoMock{assignments: make(map[primitive.ObjectID]*domain.Assignment)}
}

func copyAssignment(a *domain.Assignment) *domain.Assignment {
	c := *a
	c.Plan = planner.ClonePlan(&a.Plan)
	return &c
}

func (r *assignmentRepoMock) Create(_ context.Context, a *domain.Assignment) (primitive.ObjectID, error) {
	a.ID = primitive.NewObjectID()
	a.Version = 1
	a.CreatedAt = time.Now().UTC()
	r.assignments[a.ID] = copyAssignment(a)
	return a.ID, nil
}

func (r *assignmentRepoMock) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Assignment, error) {
	a, ok := r.assignments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyAssignment(a), nil
}

func (r *assignmentRepoMock) GetByIDForUser(ctx context.Context, id, userID primitive.ObjectID) (*domain.Assignment, error) {
	a, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.UserID != userID {
		return nil, repository.ErrNotFound
	}
	return a, nil
}

func (r *assignmentRepoMock) ListByUser(_ context.Context, userID primitive.ObjectID) ([]domain.Assignment, error) {
	var list []domain.Assignment
	for _, a := range r.assignments {
		if a.UserID == userID {
			list = append(list, *copyAssignment(a))
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return list, nil
}

func (r *assignmentRepoMock) UpdatePlan(_ context.Context, a *domain.Assignment) error {
	if r.onUpdatePlan != nil {
		r.onUpdatePlan()
	}
	if r.updatePlanErr != nil {
		return r.updatePlanErr
	}
	stored, ok := r.assignments[a.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if stored.Version != a.Version {
		return repository.ErrVersionConflict
	}
	a.Version++
	readiness, checkedAt := stored.Progress.LastReadinessScore, stored.Progress.LastCheckInAt
	next := copyAssignment(a)
	next.Progress.LastReadinessScore, next.Progress.LastCheckInAt = readiness, checkedAt
	r.assignments[a.ID] = next
	return nil
}

func (r *assignmentRepoMock) UpdateStatus(_ context.Context, id primitive.ObjectID, status domain.AssignmentStatus) (*domain.Assignment, error) {
	stored, ok := r.assignments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	stored.Status = status
	stored.Version++
	return copyAssignment(stored), nil
}

func (r *assignmentRepoMock) RecordCheckIn(_ context.Context, id primitive.ObjectID, score *int, at time.Time) error {
	stored, ok := r.assignments[id]
	if !ok {
		return repository.ErrNotFound
	}
	stored.Progress.LastReadinessScore = score
	stored.Progress.LastCheckInAt = &at
	return nil
}

type historyRepoMock struct {
	records   map[string]domain.HistoryRecord
	upsertErr error
	deleteErr error
	// afterGet runs once the lookup result is taken, to interleave another request
	afterGet func()
}

func newHistoryRepoMock() *historyRepoMock {
	return &historyRepoMock{records: make(map[string]domain.HistoryRecord)}
}

func (r *historyRepoMock) Upsert(_ context.Context, record *domain.HistoryRecord) error {
	if r.upsertErr != nil {
		return r.upsertErr
	}
	r.records[record.ID] = *record
	return nil
}

func (r *historyRepoMock) Get(_ context.Context, id string) (*domain.HistoryRecord, error) {
	record, ok := r.records[id]
	if hook := r.afterGet; hook != nil {
		r.afterGet = nil
		hook()
	}
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &record, nil
}

func (r *historyRepoMock) Delete(_ context.Context, id string) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	if _, ok := r.records[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.records, id)
	return nil
}

func (r *historyRepoMock) Exists(_ context.Context, id string) (bool, error) {
	_, ok := r.records[id]
	return ok, nil
}

type protocolRepoMock struct {
	protocols map[primitive.ObjectID]*domain.Protocol
	upsertErr map[string]error
}

func newProtocolRepoMock(protocols ...*domain.Protocol) *protocolRepoMock {
	r := &protocolRepoMock{
		protocols: make(map[primitive.ObjectID]*domain.Protocol),
		upsertErr: make(map[string]error),
	}
	for _, p := range protocols {
		if p.ID == primitive.NilObjectID {
			p.ID = primitive.NewObjectID()
		}
		r.protocols[p.ID] = p
	}
	return r
}

func (r *protocolRepoMock) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Protocol, error) {
	p, ok := r.protocols[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *p
	return &c, nil
}

func (r *protocolRepoMock) ListAvailable(_ context.Context, userID primitive.ObjectID) ([]domain.Protocol, error) {
	var list []domain.Protocol
	for _, p := range r.protocols {
		if protocolVisibleTo(p, userID) {
			list = append(list, *p)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list, nil
}

func (r *protocolRepoMock) UpsertBySlug(_ context.Context, protocol *domain.Protocol) error {
	if err := r.upsertErr[protocol.Slug]; err != nil {
		return err
	}
	for id, p := range r.protocols {
		if p.Slug == protocol.Slug {
			c := *protocol
			c.ID = id
			r.protocols[id] = &c
			return nil
		}
	}
	c := *protocol
	c.ID = primitive.NewObjectID()
	r.protocols[c.ID] = &c
	return nil
}

type checkInRepoMock struct {
	checkIns []domain.CheckIn
}

func (r *checkInRepoMock) Create(_ context.Context, c *domain.CheckIn) (primitive.ObjectID, error) {
	c.ID = primitive.NewObjectID()
	r.checkIns = append(r.checkIns, *c)
	return c.ID, nil
}

func (r *checkInRepoMock) ListRecentByUser(_ context.Context, userID primitive.ObjectID, limit int64) ([]domain.CheckIn, error) {
	var list []domain.CheckIn
	for i := len(r.checkIns) - 1; i >= 0 && int64(len(list)) < limit; i-- {
		if r.checkIns[i].UserID == userID {
			list = append(list, r.checkIns[i])
		}
	}
	return list, nil
}

type userRepoMock struct {
	users     map[string]*domain.User
	createErr error
}

func newUserRepoMock() *userRepoMock {
	return &userRepoMock{users: make(map[string]*domain.User)}
}

func (r *userRepoMock) Create(_ context.Context, u *domain.User) (primitive.ObjectID, error) {
	if r.createErr != nil {
		return primitive.NilObjectID, r.createErr
	}
	u.ID = primitive.NewObjectID()
	c := *u
	r.users[u.Email] = &c
	return u.ID, nil
}

func (r *userRepoMock) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	u, ok := r.users[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (r *userRepoMock) GetByID(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	for _, u := range r.users {
		if u.ID == id {
			c := *u
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

type storageMock struct {
	objects    map[string][]byte
	presignErr error
}

func newStorageMock() *storageMock {
	return &storageMock{objects: make(map[string][]byte)}
}

func (s *storageMock) PutObject(_ context.Context, key, _ string, body []byte) error {
	s.objects[key] = body
	return nil
}

func (s *storageMock) GeneratePresignedDownloadURL(_ context.Context, key string, _ time.Duration) (string, error) {
	if s.presignErr != nil {
		return "", s.presignErr
	}
	return "https://storage.test/" + key + "?signed", nil
}

func (s *storageMock) DeleteObject(_ context.Context, key string) error {
	delete(s.objects, key)
	return nil
}
