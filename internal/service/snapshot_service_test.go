package service

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dafibh/elektrikci/elektrikci-backend/internal/domain"
	"github.com/dafibh/elektrikci/elektrikci-backend/internal/testutil"
	"github.com/dafibh/elektrikci/elektrikci-backend/internal/websocket"
)

func TestGetSnapshot_MigratesJobs(t *testing.T) {
	jobs := testutil.NewMockJobRepository()
	customers := testutil.NewMockCustomerRepository()
	notes := testutil.NewMockNoteRepository()
	svc := NewSnapshotService(jobs, customers, notes)
	svc.SetClock(fixedClock)

	paid := true
	method := domain.PaymentMethodIBAN
	jobs.AddJob(&domain.Job{ID: "j1", WorkspaceID: 1, Name: "a", Price: dec(100), IsPaid: &paid, PaymentMethod: &method})
	jobs.AddJob(&domain.Job{ID: "j2", WorkspaceID: 2, Name: "b"})
	customers.AddCustomer(&domain.Customer{ID: "c1", WorkspaceID: 1, Name: "Mehmet"})
	notes.AddNote(&domain.Note{ID: "n1", WorkspaceID: 1, Content: "abc"})

	snapshot, err := svc.GetSnapshot(1)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(snapshot.Jobs) != 1 || len(snapshot.Customers) != 1 || len(snapshot.Notes) != 1 {
		t.Fatalf("expected one of each, got %d/%d/%d", len(snapshot.Jobs), len(snapshot.Customers), len(snapshot.Notes))
	}
	if len(snapshot.Jobs[0].Payments) != 1 || snapshot.Jobs[0].IsPaid != nil {
		t.Error("expected legacy job to be migrated")
	}
	if !snapshot.GeneratedAt.Equal(testNow) {
		t.Errorf("expected generatedAt %v, got %v", testNow, snapshot.GeneratedAt)
	}
}

func TestChangeNotifier_FollowsEventWithSnapshot(t *testing.T) {
	jobs := testutil.NewMockJobRepository()
	snapshots := NewSnapshotService(jobs, testutil.NewMockCustomerRepository(), testutil.NewMockNoteRepository())
	publisher := testutil.NewMockEventPublisher()
	notifier := NewChangeNotifier(snapshots, publisher)

	svc := NewJobService(jobs)
	svc.SetEventPublisher(notifier)
	svc.SetClock(fixedClock)

	job, err := svc.CreateJob(1, CreateJobInput{Name: "Pano", Price: dec(100)})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	got := publisher.Types()
	if len(got) != 2 || got[0] != "job.created" || got[1] != "snapshot.updated" {
		t.Fatalf("expected job.created then snapshot.updated, got %v", got)
	}
	snapshot, ok := publisher.Events[1].Event.Payload.(*domain.Snapshot)
	if !ok {
		t.Fatalf("expected snapshot payload, got %T", publisher.Events[1].Event.Payload)
	}
	if len(snapshot.Jobs) != 1 || snapshot.Jobs[0].ID != job.ID {
		t.Error("expected snapshot to contain the new job")
	}
}

func TestChangeNotifier_SnapshotFailureStillSendsEvent(t *testing.T) {
	jobs := testutil.NewMockJobRepository()
	snapshots := NewSnapshotService(failingJobRepo{jobs}, testutil.NewMockCustomerRepository(), testutil.NewMockNoteRepository())
	publisher := testutil.NewMockEventPublisher()
	notifier := NewChangeNotifier(snapshots, publisher)

	notifier.Publish(1, websocket.JobDeleted("j1"))

	if got := publisher.Types(); len(got) != 1 || got[0] != "job.deleted" {
		t.Fatalf("expected only job.deleted, got %v", got)
	}
}

type failingJobRepo struct {
	*testutil.MockJobRepository
}

func (failingJobRepo) GetAllByWorkspace(int32) ([]*domain.Job, error) {
	return nil, errors.New("db down")
}

// gatedJobRepo blocks the first GetAllByWorkspace after it has read the jobs
type gatedJobRepo struct {
	*testutil.MockJobRepository
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (g *gatedJobRepo) GetAllByWorkspace(workspaceID int32) ([]*domain.Job, error) {
	jobs, err := g.MockJobRepository.GetAllByWorkspace(workspaceID)
	g.once.Do(func() {
		close(g.entered)
		<-g.release
	})
	return jobs, err
}

type recordingClient struct {
	mu       sync.Mutex
	messages [][]byte
}

func (c *recordingClient) ID() string         { return "recorder" }
func (c *recordingClient) WorkspaceID() int32 { return 1 }
func (c *recordingClient) Close() error       { return nil }

func (c *recordingClient) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, data)
	return nil
}

func TestChangeNotifier_SnapshotsFollowSeqOrder(t *testing.T) {
	jobs := &gatedJobRepo{
		MockJobRepository: testutil.NewMockJobRepository(),
		entered:           make(chan struct{}),
		release:           make(chan struct{}),
	}
	jobs.AddJob(&domain.Job{ID: "j1", WorkspaceID: 1, Name: "Pano", Price: dec(100)})
	snapshots := NewSnapshotService(jobs, testutil.NewMockCustomerRepository(), testutil.NewMockNoteRepository())

	hub := websocket.NewHub()
	client := &recordingClient{}
	hub.Register(client)
	notifier := NewChangeNotifier(snapshots, hub)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		notifier.Publish(1, websocket.JobDeleted("j0"))
	}()

	// The first snapshot has read one job. A second change lands before it is sent.
	<-jobs.entered
	jobs.AddJob(&domain.Job{ID: "j2", WorkspaceID: 1, Name: "Priz", Price: dec(50)})
	go func() {
		defer wg.Done()
		notifier.Publish(1, websocket.JobDeleted("j9"))
	}()
	time.Sleep(20 * time.Millisecond)
	close(jobs.release)
	wg.Wait()

	var (
		lastSeq   uint64
		lastJobs  = -1
		snapshotN int
	)
	for _, data := range client.messages {
		var event struct {
			Type    string          `json:"type"`
			Seq     uint64          `json:"seq"`
			Payload json.RawMessage `json:"payload"`
		}
		if err := json.Unmarshal(data, &event); err != nil {
			t.Fatalf("decode event: %v", err)
		}
		if event.Seq <= lastSeq {
			t.Fatalf("expected increasing seq, got %d after %d", event.Seq, lastSeq)
		}
		lastSeq = event.Seq
		if event.Type != "snapshot.updated" {
			continue
		}
		snapshotN++
		var snapshot struct {
			Jobs []json.RawMessage `json:"jobs"`
		}
		if err := json.Unmarshal(event.Payload, &snapshot); err != nil {
			t.Fatalf("decode snapshot: %v", err)
		}
		if len(snapshot.Jobs) < lastJobs {
			t.Fatalf("snapshot with seq %d has %d jobs, an earlier one had %d", event.Seq, len(snapshot.Jobs), lastJobs)
		}
		lastJobs = len(snapshot.Jobs)
	}
	if snapshotN != 2 || lastJobs != 2 {
		t.Errorf("expected two snapshots ending with 2 jobs, got %d ending with %d", snapshotN, lastJobs)
	}
}
