package species

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/evcraddock/species-catalog/internal/db"
)

func testSetup(t *testing.T) (*Repository, *sql.DB) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	d, err := db.Open(path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if err := d.Close(); err != nil {
			t.Errorf("close db: %v", err)
		}
	})

	for _, id := range []string{"alice", "bob"} {
		if _, err := d.Exec(
			"INSERT INTO profiles (id, email, display_name) VALUES (?, ?, ?)",
			id, id+"@example.com", id,
		); err != nil {
			t.Fatalf("insert profile: %v", err)
		}
	}

	return NewRepository(d), d
}

func strPtr(s string) *string { return &s }

func TestCreateAndGet(t *testing.T) {
	repo, _ := testSetup(t)
	ctx := context.Background()
	pop := int64(20000)

	s, err := repo.Create(ctx, "alice", Input{
		ScientificName:  "Panthera leo",
		CommonName:      strPtr("Lion"),
		TotalPopulation: &pop,
		Kingdom:         KingdomAnimalia,
		Description:     strPtr(" "),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if s.ID == 0 {
		t.Error("expected non-zero ID")
	}
	if s.Author != "alice" {
		t.Errorf("author = %q, want %q", s.Author, "alice")
	}
	if s.Description != nil {
		t.Errorf("description = %q, want nil", *s.Description)
	}

	got, err := repo.GetByID(ctx, s.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.TotalPopulation == nil || *got.TotalPopulation != pop {
		t.Errorf("population = %v, want %d", got.TotalPopulation, pop)
	}
	if got.Kingdom != KingdomAnimalia {
		t.Errorf("kingdom = %q", got.Kingdom)
	}
}

func TestCreateInvalid(t *testing.T) {
	repo, _ := testSetup(t)

	_, err := repo.Create(context.Background(), "alice", Input{ScientificName: "X", Kingdom: "Nope"})
	if err == nil {
		t.Fatal("expected error for invalid kingdom")
	}
}

func TestGetNotFound(t *testing.T) {
	repo, _ := testSetup(t)

	_, err := repo.GetByID(context.Background(), 999)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestList(t *testing.T) {
	repo, _ := testSetup(t)
	ctx := context.Background()

	inputs := []Input{
		{ScientificName: "Quercus robur", CommonName: strPtr("English oak"), Kingdom: KingdomPlantae},
		{ScientificName: "Panthera leo", CommonName: strPtr("Lion"), Kingdom: KingdomAnimalia},
		{ScientificName: "Amanita muscaria", Kingdom: KingdomFungi},
	}
	for _, in := range inputs {
		if _, err := repo.Create(ctx, "alice", in); err != nil {
			t.Fatalf("create %s: %v", in.ScientificName, err)
		}
	}

	tests := []struct {
		name string
		opts ListOptions
		want []string
	}{
		{"all sorted", ListOptions{}, []string{"Amanita muscaria", "Panthera leo", "Quercus robur"}},
		{"by kingdom", ListOptions{Kingdom: KingdomPlantae}, []string{"Quercus robur"}},
		{"by common name", ListOptions{Query: "lion"}, []string{"Panthera leo"}},
		{"no match", ListOptions{Query: "zebra"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := repo.List(ctx, tt.opts)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(list) != len(tt.want) {
				t.Fatalf("got %d species, want %d", len(list), len(tt.want))
			}
			for i, want := range tt.want {
				if list[i].ScientificName != want {
					t.Errorf("list[%d] = %q, want %q", i, list[i].ScientificName, want)
				}
			}
		})
	}
}

func TestUpdateByAuthor(t *testing.T) {
	repo, _ := testSetup(t)
	ctx := context.Background()

	s, err := repo.Create(ctx, "alice", Input{ScientificName: "Panthera leo", Kingdom: KingdomAnimalia})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := repo.Update(ctx, s.ID, "alice", Input{
		ScientificName: "Panthera leo",
		CommonName:     strPtr("African lion"),
		Kingdom:        KingdomAnimalia,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.CommonName == nil || *updated.CommonName != "African lion" {
		t.Errorf("common name = %v", updated.CommonName)
	}
}

func TestUpdateByOtherViewer(t *testing.T) {
	repo, _ := testSetup(t)
	ctx := context.Background()

	s, err := repo.Create(ctx, "alice", Input{ScientificName: "Panthera leo", Kingdom: KingdomAnimalia})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = repo.Update(ctx, s.ID, "bob", Input{ScientificName: "Hijacked", Kingdom: KingdomAnimalia})
	if !errors.Is(err, ErrNotAuthor) {
		t.Fatalf("err = %v, want ErrNotAuthor", err)
	}

	got, err := repo.GetByID(ctx, s.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ScientificName != "Panthera leo" {
		t.Errorf("scientific name changed to %q", got.ScientificName)
	}
}

func TestDelete(t *testing.T) {
	repo, d := testSetup(t)
	ctx := context.Background()

	s, err := repo.Create(ctx, "alice", Input{ScientificName: "Panthera leo", Kingdom: KingdomAnimalia})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := d.Exec(
		"INSERT INTO species_comments (species_id, author, content) VALUES (?, ?, ?)",
		s.ID, "bob", "Majestic",
	); err != nil {
		t.Fatalf("insert comment: %v", err)
	}

	if err := repo.Delete(ctx, s.ID, "bob"); !errors.Is(err, ErrNotAuthor) {
		t.Errorf("delete by other = %v, want ErrNotAuthor", err)
	}
	if err := repo.Delete(ctx, s.ID, "alice"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.Delete(ctx, s.ID, "alice"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete = %v, want ErrNotFound", err)
	}

	var count int
	if err := d.QueryRow("SELECT COUNT(*) FROM species_comments WHERE species_id = ?", s.ID).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Errorf("got %d comments after delete, want 0", count)
	}
}
