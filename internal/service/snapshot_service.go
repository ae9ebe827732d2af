package service

import (
	"github.com/dafibh/elektrikci/elektrikci-backend/internal/domain"
	"github.com/dafibh/elektrikci/elektrikci-backend/internal/websocket"
	"github.com/rs/zerolog/log"
)

// SnapshotService reads the whole state of a workspace
type SnapshotService struct {
	jobRepo      domain.JobRepository
	customerRepo domain.CustomerRepository
	noteRepo     domain.NoteRepository
	now          Clock
}

// NewSnapshotService creates a new SnapshotService
func NewSnapshotService(
	jobRepo domain.JobRepository,
	customerRepo domain.CustomerRepository,
	noteRepo domain.NoteRepository,
) *SnapshotService {
	return &SnapshotService{
		jobRepo:      jobRepo,
		customerRepo: customerRepo,
		noteRepo:     noteRepo,
		now:          systemClock,
	}
}

// SetClock replaces the time source
func (s *SnapshotService) SetClock(clock Clock) {
	s.now = clock
}

// GetSnapshot returns every job, customer and note of the workspace.
// Jobs come back migrated to the payments-list shape.
func (s *SnapshotService) GetSnapshot(workspaceID int32) (*domain.Snapshot, error) {
	jobs, err := s.jobRepo.GetAllByWorkspace(workspaceID)
	if err != nil {
		return nil, err
	}
	customers, err := s.customerRepo.GetAllByWorkspace(workspaceID)
	if err != nil {
		return nil, err
	}
	notes, err := s.noteRepo.GetAllByWorkspace(workspaceID)
	if err != nil {
		return nil, err
	}

	return &domain.Snapshot{
		Jobs:        jobs,
		Customers:   customers,
		Notes:       notes,
		GeneratedAt: s.now(),
	}, nil
}

// ChangeNotifier forwards change events and follows each one with a fresh
// snapshot of the workspace, so subscribers never have to merge deltas.
type ChangeNotifier struct {
	publisher websocket.BuiltEventPublisher
	snapshots *SnapshotService
}

// Ensure ChangeNotifier implements EventPublisher
var _ websocket.EventPublisher = (*ChangeNotifier)(nil)

// NewChangeNotifier creates a notifier publishing to publisher
func NewChangeNotifier(snapshots *SnapshotService, publisher websocket.BuiltEventPublisher) *ChangeNotifier {
	return &ChangeNotifier{
		publisher: publisher,
		snapshots: snapshots,
	}
}

// Publish sends event, then the current snapshot. The snapshot is read while
// the workspace's stream is held, so a snapshot with a higher seq is never older.
func (n *ChangeNotifier) Publish(workspaceID int32, event websocket.Event) {
	n.publisher.Publish(workspaceID, event)

	err := n.publisher.PublishBuilt(workspaceID, func() (websocket.Event, error) {
		snapshot, err := n.snapshots.GetSnapshot(workspaceID)
		if err != nil {
			return websocket.Event{}, err
		}
		return websocket.SnapshotUpdated(snapshot), nil
	})
	if err != nil {
		log.Warn().Err(err).Int32("workspace_id", workspaceID).Str("event", event.Type).Msg("Failed to build snapshot after change")
	}
}
