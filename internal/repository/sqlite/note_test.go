package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/codeminder/internal/apperror"
	"github.com/sakif/codeminder/internal/model"
)

func TestNote_CRUDLifecycle(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "notes@example.com")
	ctx := context.Background()

	note := &model.Note{UserID: user.ID, Type: model.NoteTypeGeneral, Name: "Graphs", Content: "BFS first"}
	if err := db.CreateNote(ctx, note); err != nil {
		t.Fatalf("CreateNote() error = %v", err)
	}
	if note.ID == "" {
		t.Fatal("CreateNote() did not set ID")
	}

	got, err := db.GetNote(ctx, note.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Graphs" || got.Content != "BFS first" || got.QuestionID != "" || got.UserID != user.ID {
		t.Errorf("GetNote() = %+v", got)
	}

	got.Content = "DFS too"
	if err := db.UpdateNote(ctx, got); err != nil {
		t.Fatalf("UpdateNote() error = %v", err)
	}
	updated, _ := db.GetNote(ctx, note.ID)
	if updated.Content != "DFS too" {
		t.Errorf("Content = %q after update", updated.Content)
	}

	if err := db.DeleteNote(ctx, note.ID); err != nil {
		t.Fatalf("DeleteNote() error = %v", err)
	}
	if _, err := db.GetNote(ctx, note.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetNote() after delete error = %v, want ErrNotFound", err)
	}
}

func TestNote_MissingRowsAreNotFound(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if err := db.UpdateNote(ctx, &model.Note{ID: "missing", Content: "x"}); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("UpdateNote() error = %v, want ErrNotFound", err)
	}
	if err := db.DeleteNote(ctx, "missing"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("DeleteNote() error = %v, want ErrNotFound", err)
	}
}

func TestListNotes_FiltersByUserAndType(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice@example.com")
	bob := createTestUser(t, db, "bob@example.com")
	q := createTestQuestion(t, db, "q")
	ctx := context.Background()

	for _, n := range []*model.Note{
		{UserID: alice.ID, Type: model.NoteTypeGeneral, Name: "one", Content: "1"},
		{UserID: alice.ID, Type: model.NoteTypeGeneral, Name: "two", Content: "2"},
		{UserID: alice.ID, Type: model.NoteTypeQuestion, QuestionID: q.ID, Content: "3"},
		{UserID: bob.ID, Type: model.NoteTypeGeneral, Name: "bob", Content: "4"},
	} {
		if err := db.CreateNote(ctx, n); err != nil {
			t.Fatal(err)
		}
	}

	general, err := db.ListNotes(ctx, alice.ID, model.NoteTypeGeneral)
	if err != nil {
		t.Fatal(err)
	}
	if len(general) != 2 {
		t.Errorf("alice general notes = %d, want 2", len(general))
	}

	questions, err := db.ListNotes(ctx, alice.ID, model.NoteTypeQuestion)
	if err != nil {
		t.Fatal(err)
	}
	if len(questions) != 1 || questions[0].QuestionID != q.ID || questions[0].Name != "" {
		t.Errorf("alice question notes = %+v", questions)
	}
}

func TestQuestionNoteIDs(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "qn@example.com")
	q1 := createTestQuestion(t, db, "q1")
	q2 := createTestQuestion(t, db, "q2")
	ctx := context.Background()

	n1 := &model.Note{UserID: user.ID, Type: model.NoteTypeQuestion, QuestionID: q1.ID, Content: "a"}
	if err := db.CreateNote(ctx, n1); err != nil {
		t.Fatal(err)
	}
	general := &model.Note{UserID: user.ID, Type: model.NoteTypeGeneral, Name: "g", Content: "b"}
	if err := db.CreateNote(ctx, general); err != nil {
		t.Fatal(err)
	}

	ids, err := db.QuestionNoteIDs(ctx, user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 1 || ids[q1.ID] != n1.ID {
		t.Errorf("QuestionNoteIDs() = %v, want {%s: %s}", ids, q1.ID, n1.ID)
	}
	if _, ok := ids[q2.ID]; ok {
		t.Error("q2 has no note but appears in the map")
	}
}
