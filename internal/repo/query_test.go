package repo

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestBuild_DocumentQuery(t *testing.T) {
	since := time.Date(2025, 5, 16, 12, 0, 0, 0, time.UTC)
	q := NewQuery().
		Where(FieldCPR, Eq("0101101234")).
		Where(FieldDescription, Like("%Printet journal%(delvis kopi)%")).
		Where(FieldDocumentType, Eq("Journaludskrift")).
		Where(FieldCreatedAt, GTE(since))

	sql, args, err := build(documentBase, documentColumns, q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Фильтры отсортированы по имени поля
	wantWhere := "AND p.cpr = $1 AND ds.document_created_date >= $2 AND ds.document_description LIKE $3 AND ds.document_type = $4"
	if !strings.HasSuffix(sql, wantWhere) {
		t.Errorf("unexpected sql:\n%s", sql)
	}
	want := []any{"0101101234", since, "%Printet journal%(delvis kopi)%", "Journaludskrift"}
	if !reflect.DeepEqual(args, want) {
		t.Errorf("expected args %v, got %v", want, args)
	}
}

func TestBuild_InOrderLimit(t *testing.T) {
	q := NewQuery().
		Where(FieldDocumentType, In("Journaludskrift", "Udskrivning - 22 år!$#")).
		Order(FieldCreatedAt, Desc).
		Take(5)

	sql, args, err := build("SELECT * FROM document_store ds JOIN patients p ON p.id = ds.patient_id", documentColumns, q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(sql, " WHERE ds.document_type = ANY($1)") {
		t.Errorf("expected WHERE with ANY, got %s", sql)
	}
	if !strings.HasSuffix(sql, "ORDER BY ds.document_created_date DESC LIMIT $2") {
		t.Errorf("unexpected tail: %s", sql)
	}
	if len(args) != 2 || args[1] != 5 {
		t.Errorf("unexpected args: %v", args)
	}
	if types, ok := args[0].([]string); !ok || len(types) != 2 {
		t.Errorf("expected []string arg, got %T", args[0])
	}
}

func TestBuild_DefaultDirectionAsc(t *testing.T) {
	q := NewQuery().Order(FieldDocumentedAt, "")

	sql, _, err := build(journalBase, journalColumns, q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasSuffix(sql, "ORDER BY dn.dokumenteret ASC") {
		t.Errorf("unexpected sql: %s", sql)
	}
}

func TestBuild_UnknownField(t *testing.T) {
	_, _, err := build(journalBase, journalColumns, NewQuery().Where("patient; DROP TABLE", Eq(1)))
	if !errors.Is(err, ErrUnknownField) {
		t.Errorf("expected ErrUnknownField, got %v", err)
	}

	_, _, err = build(journalBase, journalColumns, NewQuery().Order("nope", Asc))
	if !errors.Is(err, ErrUnknownField) {
		t.Errorf("expected ErrUnknownField for order, got %v", err)
	}
}

func TestBuild_UnknownOp(t *testing.T) {
	q := NewQuery().Where(FieldCPR, Predicate{Op: "<>", Value: "x"})
	_, _, err := build(journalBase, journalColumns, q)
	if !errors.Is(err, ErrUnknownOp) {
		t.Errorf("expected ErrUnknownOp, got %v", err)
	}
}

func TestBuild_NilQuery(t *testing.T) {
	sql, args, err := build(journalBase, journalColumns, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(sql, "WHERE") || len(args) != 0 {
		t.Errorf("expected bare query, got %s %v", sql, args)
	}
}

func TestContains(t *testing.T) {
	p := Contains("EDI Portal - Anna Jensen")
	if p.Op != OpLike || p.Value != "%EDI Portal - Anna Jensen%" {
		t.Errorf("unexpected predicate: %+v", p)
	}
}
