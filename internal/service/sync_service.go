package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/noah-isme/classroom-sync/internal/models"
	"github.com/noah-isme/classroom-sync/internal/persistence"
	"github.com/noah-isme/classroom-sync/pkg/config"
	"github.com/noah-isme/classroom-sync/pkg/jobs"
)

type scopedStorage interface {
	Origin() string
	Read(ctx context.Context, scope models.Scope, key string, dest interface{}) (bool, error)
	Write(ctx context.Context, scope models.Scope, key string, value interface{}) error
	Subscribe(ctx context.Context, fn func(models.StorageChange)) (persistence.Unsubscribe, error)
}

type storeHydrator interface {
	ReplaceClassrooms(records []models.ClassroomRecord) int
	ReplaceJoined(records []models.JoinedClassRecord, found bool)
}

type syncObserver interface {
	RecordReconciliation(outcome string, dropped int)
}

// SyncService bridges a ClassroomStore and the persistence adapter. It
// hydrates the store on start, writes local mutations through, and replays
// device changes made by other contexts onto the store.
type SyncService struct {
	storage scopedStorage
	logger  *zap.Logger
	metrics syncObserver
	queue   *jobs.Queue[models.StorageChange]
	pending atomic.Bool

	mu          sync.Mutex
	store       storeHydrator
	unsubscribe persistence.Unsubscribe
}

// NewSyncService constructs the bridge. Reconciliation runs on a single
// worker so external changes are applied in the order they arrive.
func NewSyncService(storage scopedStorage, cfg config.SyncConfig, logger *zap.Logger, metrics syncObserver) *SyncService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &SyncService{storage: storage, logger: logger, metrics: metrics}
	s.queue = jobs.NewQueue[models.StorageChange]("storage-reconcile", s.reconcile, jobs.QueueConfig{
		Workers:    1,
		MaxRetries: cfg.Retries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return s
}

// Start hydrates store from both scopes and begins listening for external
// device changes. It must be called once per store.
func (s *SyncService) Start(ctx context.Context, store storeHydrator) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store != nil {
		return fmt.Errorf("sync already started")
	}
	s.store = store

	var classrooms []models.ClassroomRecord
	found, err := s.storage.Read(ctx, models.ScopeDevice, models.KeyClassrooms, &classrooms)
	if err != nil {
		s.logger.Warn("device classrooms unreadable, starting from seeds", zap.Error(err))
	} else if found {
		if dropped := store.ReplaceClassrooms(classrooms); dropped > 0 {
			s.logger.Info("dropped persisted classrooms on load", zap.Int("dropped", dropped))
		}
	}

	var joined []models.JoinedClassRecord
	found, err = s.storage.Read(ctx, models.ScopeSession, models.KeyJoinedClasses, &joined)
	if err != nil {
		s.logger.Warn("joined classes unreadable, using default", zap.Error(err))
		found = false
	}
	store.ReplaceJoined(joined, found)

	s.queue.Start(ctx)
	unsubscribe, err := s.storage.Subscribe(ctx, s.enqueue)
	if err != nil {
		s.queue.Stop()
		s.store = nil
		return err
	}
	s.unsubscribe = unsubscribe
	s.logger.Info("sync started", zap.String("origin", s.storage.Origin()), zap.Int("classrooms", len(classrooms)))
	return nil
}

// Stop detaches from the adapter and drains the worker.
func (s *SyncService) Stop() {
	s.mu.Lock()
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	s.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
	s.queue.Stop()
}

// SaveClassrooms writes the created collection to device scope.
func (s *SyncService) SaveClassrooms(ctx context.Context, records []models.ClassroomRecord) error {
	if records == nil {
		records = []models.ClassroomRecord{}
	}
	return s.storage.Write(ctx, models.ScopeDevice, models.KeyClassrooms, records)
}

// SaveJoined writes the joined collection to session scope.
func (s *SyncService) SaveJoined(ctx context.Context, records []models.JoinedClassRecord) error {
	if records == nil {
		records = []models.JoinedClassRecord{}
	}
	return s.storage.Write(ctx, models.ScopeSession, models.KeyJoinedClasses, records)
}

// enqueue never blocks, since change listeners may run while the publishing
// store holds its lock. Classroom changes coalesce: while a re-read is queued
// and not yet started, further notifications are folded into it.
func (s *SyncService) enqueue(change models.StorageChange) {
	if change.Key != models.KeyClassrooms {
		s.observe("ignored", 0)
		return
	}
	if !s.pending.CompareAndSwap(false, true) {
		s.observe("coalesced", 0)
		return
	}
	job := jobs.Job[models.StorageChange]{ID: change.Origin + "/" + change.Key, Payload: change}
	if err := s.queue.TryEnqueue(job); err != nil {
		s.pending.Store(false)
		s.logger.Warn("external change dropped", zap.String("key", change.Key), zap.Error(err))
	}
}

// reconcile re-reads the changed key and replaces the whole collection.
// Nothing is written back, so a reconciliation never announces a change.
func (s *SyncService) reconcile(ctx context.Context, job jobs.Job[models.StorageChange]) error {
	change := job.Payload
	if change.Key != models.KeyClassrooms {
		s.observe("ignored", 0)
		return nil
	}
	s.pending.Store(false)
	s.mu.Lock()
	store := s.store
	s.mu.Unlock()
	if store == nil {
		return nil
	}

	var records []models.ClassroomRecord
	if _, err := s.storage.Read(ctx, models.ScopeDevice, models.KeyClassrooms, &records); err != nil {
		s.observe("read_failed", 0)
		return err
	}
	dropped := store.ReplaceClassrooms(records)
	s.observe("applied", dropped)
	s.logger.Debug("classrooms reconciled",
		zap.String("from", change.Origin),
		zap.Int("records", len(records)),
		zap.Int("dropped", dropped))
	return nil
}

func (s *SyncService) observe(outcome string, dropped int) {
	if s.metrics != nil {
		s.metrics.RecordReconciliation(outcome, dropped)
	}
}
