package audit

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/nerrad567/irrigation-relay/internal/infrastructure/database"
	"github.com/nerrad567/irrigation-relay/internal/registry"
	_ "github.com/nerrad567/irrigation-relay/migrations"
)

func testRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, database.Config{
		Path:        filepath.Join(t.TempDir(), "audit.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("database.Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return NewSQLiteRepository(db.DB)
}

func TestSQLiteRepository_CreateAndList(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	entries := []*Entry{
		{Action: ActionRegister, EntityType: EntityDevice, EntityID: "ESP_11111111", Operator: "alice", Source: SourceChat, CreatedAt: base},
		{Action: ActionRegister, EntityType: EntityDevice, EntityID: "ESP_22222222", Operator: "bob", Source: SourceChat, CreatedAt: base.Add(time.Minute)},
		{Action: ActionRelease, EntityType: EntityDevice, EntityID: "ESP_11111111", Operator: "alice", Source: SourceChat, CreatedAt: base.Add(2 * time.Minute),
			Details: map[string]any{"reason": "moved"}},
	}
	for _, e := range entries {
		if err := repo.Create(ctx, e); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if e.ID == "" {
			t.Error("Create() did not assign an ID")
		}
	}

	tests := []struct {
		name      string
		filter    Filter
		wantTotal int
		wantFirst string
	}{
		{"all newest first", Filter{}, 3, ActionRelease},
		{"by device", Filter{EntityID: "ESP_11111111"}, 2, ActionRelease},
		{"by action", Filter{Action: ActionRegister}, 2, ActionRegister},
		{"by operator", Filter{Operator: "bob"}, 1, ActionRegister},
		{"no match", Filter{EntityID: "ESP_99999999"}, 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := repo.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if res.Total != tt.wantTotal || len(res.Entries) != tt.wantTotal {
				t.Fatalf("Total = %d, len = %d, want %d", res.Total, len(res.Entries), tt.wantTotal)
			}
			if tt.wantFirst != "" && res.Entries[0].Action != tt.wantFirst {
				t.Errorf("first action = %q, want %q", res.Entries[0].Action, tt.wantFirst)
			}
		})
	}

	res, err := repo.List(ctx, Filter{Action: ActionRelease})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	got := res.Entries[0]
	if got.Details["reason"] != "moved" || !got.CreatedAt.Equal(base.Add(2*time.Minute)) {
		t.Errorf("entry = %+v", got)
	}
}

func TestSQLiteRepository_Pagination(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := repo.Create(ctx, &Entry{Action: ActionRegister, EntityType: EntityDevice, Source: SourceChat}); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	res, err := repo.List(ctx, Filter{Limit: 2, Offset: 4})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if res.Total != 5 || len(res.Entries) != 1 || res.Limit != 2 || res.Offset != 4 {
		t.Errorf("page = total %d, len %d, limit %d, offset %d", res.Total, len(res.Entries), res.Limit, res.Offset)
	}
}

func TestClampFilter(t *testing.T) {
	tests := []struct {
		in         Filter
		wantLimit  int
		wantOffset int
	}{
		{Filter{}, 50, 0},
		{Filter{Limit: 500}, 200, 0},
		{Filter{Limit: 10, Offset: -3}, 10, 0},
	}
	for _, tt := range tests {
		got := clampFilter(tt.in)
		if got.Limit != tt.wantLimit || got.Offset != tt.wantOffset {
			t.Errorf("clampFilter(%+v) = %+v", tt.in, got)
		}
	}
}

type memRepo struct {
	entries []Entry
	failOn  string
}

func (m *memRepo) Create(_ context.Context, e *Entry) error {
	if e.Action == m.failOn {
		return errors.New("write failed")
	}
	m.entries = append(m.entries, *e)
	return nil
}

func (m *memRepo) List(context.Context, Filter) (*ListResult, error) {
	return &ListResult{Entries: m.entries, Total: len(m.entries)}, nil
}

func TestRecorder_RecordRegistration(t *testing.T) {
	tests := []struct {
		name        string
		reg         registry.Registration
		wantActions []string
	}{
		{
			name:        "fresh binding",
			reg:         registry.Registration{Device: "ESP_11111111", Operator: "alice"},
			wantActions: []string{ActionRegister},
		},
		{
			name:        "operator moves",
			reg:         registry.Registration{Device: "ESP_22222222", Operator: "alice", PreviousDevice: "ESP_11111111"},
			wantActions: []string{ActionRegister, ActionRelease},
		},
		{
			name: "device claimed and operator moves",
			reg: registry.Registration{
				Device: "ESP_22222222", Operator: "alice",
				PreviousDevice: "ESP_11111111", DisplacedOperator: "bob",
			},
			wantActions: []string{ActionRegister, ActionRelease, ActionDisplace},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &memRepo{}
			rec := NewRecorder(repo, SourceChat)
			if err := rec.RecordRegistration(context.Background(), tt.reg); err != nil {
				t.Fatalf("RecordRegistration() error = %v", err)
			}

			if len(repo.entries) != len(tt.wantActions) {
				t.Fatalf("entries = %+v, want actions %v", repo.entries, tt.wantActions)
			}
			for i, want := range tt.wantActions {
				e := repo.entries[i]
				if e.Action != want || e.Source != SourceChat || e.EntityType != EntityDevice {
					t.Errorf("entry %d = %+v, want action %s", i, e, want)
				}
				if !e.CreatedAt.Equal(repo.entries[0].CreatedAt) {
					t.Errorf("entry %d timestamp differs", i)
				}
			}
		})
	}
}

func TestRecorder_DisplacedOperatorEntry(t *testing.T) {
	repo := &memRepo{}
	rec := NewRecorder(repo, SourceChat)
	reg := registry.Registration{Device: "ESP_22222222", Operator: "alice", DisplacedOperator: "bob"}

	if err := rec.RecordRegistration(context.Background(), reg); err != nil {
		t.Fatalf("RecordRegistration() error = %v", err)
	}
	d := repo.entries[1]
	if d.Operator != "bob" || d.EntityID != "ESP_22222222" || d.Details["new_operator"] != "alice" {
		t.Errorf("displace entry = %+v", d)
	}
}

func TestRecorder_ContinuesAfterFailure(t *testing.T) {
	repo := &memRepo{failOn: ActionRegister}
	rec := NewRecorder(repo, SourceChat)
	reg := registry.Registration{Device: "ESP_22222222", Operator: "alice", PreviousDevice: "ESP_11111111"}

	if err := rec.RecordRegistration(context.Background(), reg); err == nil {
		t.Error("RecordRegistration() expected error")
	}
	if len(repo.entries) != 1 || repo.entries[0].Action != ActionRelease {
		t.Errorf("entries = %+v, want the release entry still written", repo.entries)
	}
}

func TestRecorder_RegistryIntegration(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	reg := registry.New(registry.NewMemoryStore())
	reg.SetAuditor(NewRecorder(repo, SourceChat))

	if _, err := reg.Register(ctx, "ESP_11111111", "alice"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if _, err := reg.Register(ctx, "ESP_11111111", "bob"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	res, err := repo.List(ctx, Filter{EntityID: "ESP_11111111"})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	// register(alice), register(bob), displace(alice)
	if res.Total != 3 {
		t.Errorf("Total = %d, want 3: %+v", res.Total, res.Entries)
	}
}
