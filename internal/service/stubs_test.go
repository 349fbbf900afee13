package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/noah-isme/sma-score-portal/internal/models"
	"github.com/noah-isme/sma-score-portal/internal/repository"
	appErrors "github.com/noah-isme/sma-score-portal/pkg/errors"
)

type planLoaderStub struct {
	cfg models.PlanConfig
}

func (p planLoaderStub) Load(ctx context.Context) models.PlanConfig {
	return p.cfg
}

func defaultPlans() planLoaderStub {
	return planLoaderStub{cfg: models.DefaultPlanConfig()}
}

type studentStoreStub struct {
	mu        sync.Mutex
	items     map[string]models.Student
	err       error
	upsertErr map[string]error
	writes    []string
}

func newStudentStore(students ...models.Student) *studentStoreStub {
	store := &studentStoreStub{items: make(map[string]models.Student)}
	for _, s := range students {
		store.items[s.StudentID] = s
	}
	return store
}

func (s *studentStoreStub) sorted() []models.Student {
	result := make([]models.Student, 0, len(s.items))
	for _, student := range s.items {
		result = append(result, student)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StudentID < result[j].StudentID })
	return result
}

func (s *studentStoreStub) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, 0, s.err
	}
	result := []models.Student{}
	for _, student := range s.sorted() {
		if filter.StudyPlan != "" && student.StudyPlan != filter.StudyPlan {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(student.FullName()+" "+student.StudentID), strings.ToLower(filter.Search)) {
			continue
		}
		result = append(result, student)
	}
	return result, len(result), nil
}

func (s *studentStoreStub) ListAll(ctx context.Context) ([]models.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return s.sorted(), nil
}

func (s *studentStoreStub) FindByID(ctx context.Context, id string) (*models.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	student, ok := s.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &student, nil
}

func (s *studentStoreStub) FindOne(ctx context.Context, lookup models.StudentLookup) (*models.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	for _, student := range s.sorted() {
		if lookup.ThID != "" && student.ThID != lookup.ThID {
			continue
		}
		if lookup.StudentID != "" && student.StudentID != lookup.StudentID {
			continue
		}
		return &student, nil
	}
	return nil, sql.ErrNoRows
}

func (s *studentStoreStub) Insert(ctx context.Context, student *models.Student) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return false, s.err
	}
	if _, exists := s.items[student.StudentID]; exists {
		return false, nil
	}
	s.items[student.StudentID] = *student
	s.writes = append(s.writes, student.StudentID)
	return true, nil
}

func (s *studentStoreStub) Upsert(ctx context.Context, student *models.Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.upsertErr[student.StudentID]; err != nil {
		return err
	}
	if s.err != nil {
		return s.err
	}
	s.items[student.StudentID] = *student
	s.writes = append(s.writes, student.StudentID)
	return nil
}

func (s *studentStoreStub) Update(ctx context.Context, currentID string, student *models.Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if _, ok := s.items[currentID]; !ok {
		return sql.ErrNoRows
	}
	if _, taken := s.items[student.StudentID]; taken && student.StudentID != currentID {
		return repository.ErrDuplicateKey
	}
	delete(s.items, currentID)
	s.items[student.StudentID] = *student
	s.writes = append(s.writes, student.StudentID)
	return nil
}

func (s *studentStoreStub) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if _, ok := s.items[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.items, id)
	return nil
}

type documentStoreStub struct {
	docs   map[string][]byte
	getErr error
	putErr error
}

func newDocumentStore() *documentStoreStub {
	return &documentStoreStub{docs: make(map[string][]byte)}
}

func (d *documentStoreStub) Get(ctx context.Context, key string, dest interface{}) error {
	if d.getErr != nil {
		return d.getErr
	}
	raw, ok := d.docs[key]
	if !ok {
		return sql.ErrNoRows
	}
	return json.Unmarshal(raw, dest)
}

func (d *documentStoreStub) Put(ctx context.Context, key string, value interface{}) error {
	if d.putErr != nil {
		return d.putErr
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	d.docs[key] = raw
	return nil
}

type statisticsStoreStub struct {
	mu         sync.Mutex
	items      map[string]models.PlanStatistics
	replaceErr error
	gets       int
}

func newStatisticsStore() *statisticsStoreStub {
	return &statisticsStoreStub{items: make(map[string]models.PlanStatistics)}
}

func (s *statisticsStoreStub) Get(ctx context.Context, planKey string) (*models.PlanStatistics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets++
	stats, ok := s.items[planKey]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &stats, nil
}

func (s *statisticsStoreStub) List(ctx context.Context) (map[string]models.PlanStatistics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make(map[string]models.PlanStatistics, len(s.items))
	for key, stats := range s.items {
		result[key] = stats
	}
	return result, nil
}

func (s *statisticsStoreStub) Replace(ctx context.Context, stats models.PlanStatistics) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.replaceErr != nil {
		return s.replaceErr
	}
	s.items[stats.PlanKey] = stats
	return nil
}

type schedulerStub struct {
	mu      sync.Mutex
	reasons []string
}

func (s *schedulerStub) Schedule(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reasons = append(s.reasons, reason)
}

func (s *schedulerStub) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.reasons)
}

type cacheRepoStub struct {
	mu      sync.Mutex
	entries map[string]models.PlanStatistics
	evicted [][]string
	err     error
}

func newCacheRepoStub() *cacheRepoStub {
	return &cacheRepoStub{entries: make(map[string]models.PlanStatistics)}
}

func (c *cacheRepoStub) Get(ctx context.Context, planKey string) (*models.PlanStatistics, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	stats, ok := c.entries[planKey]
	if !ok {
		return nil, appErrors.ErrCacheMiss
	}
	return &stats, nil
}

func (c *cacheRepoStub) Put(ctx context.Context, stats models.PlanStatistics, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[stats.PlanKey] = stats
	return nil
}

func (c *cacheRepoStub) Add(ctx context.Context, stats models.PlanStatistics, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[stats.PlanKey]; ok {
		return false, nil
	}
	c.entries[stats.PlanKey] = stats
	return true, nil
}

func (c *cacheRepoStub) Evict(ctx context.Context, planKeys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(planKeys) == 0 {
		c.entries = make(map[string]models.PlanStatistics)
	}
	for _, key := range planKeys {
		delete(c.entries, key)
	}
	c.evicted = append(c.evicted, planKeys)
	return nil
}

func fixedClock() time.Time {
	return time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
}

func ptr(v float64) *float64 {
	return &v
}
