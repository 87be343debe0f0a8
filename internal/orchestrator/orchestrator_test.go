package orchestrator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kindly/csvs-convert/internal/sketch"
)

func TestRunSuffixesCollidingNames(t *testing.T) {
	inputs := []Input{
		{Name: "widgets", Path: "a/widgets.csv", Data: strings.NewReader("id\n1\n")},
		{Name: "widgets", Path: "b/widgets.csv", Data: strings.NewReader("id\n2\n")},
		{Name: "widgets", Path: "c/widgets.csv", Data: strings.NewReader("id\n3\n")},
	}
	pkg, err := Run(context.Background(), inputs, Options{Threads: 2, Stats: true, ExactThreshold: sketch.DefaultExactThreshold})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(pkg.Resources) != 3 {
		t.Fatalf("len(Resources) = %d, want 3", len(pkg.Resources))
	}
	names := []string{pkg.Resources[0].Name, pkg.Resources[1].Name, pkg.Resources[2].Name}
	if names[0] != "widgets" || names[1] != "widgets_2" || names[2] != "widgets_3" {
		t.Fatalf("names = %v, want [widgets widgets_2 widgets_3]", names)
	}
}

func TestRunDetectsForeignKey(t *testing.T) {
	inputs := []Input{
		{Name: "orders", Path: "orders.csv", Data: strings.NewReader("id,customer_id\n1,7\n2,9\n3,7\n")},
		{Name: "customers", Path: "customers.csv", Data: strings.NewReader("id\n7\n8\n9\n")},
	}
	pkg, err := Run(context.Background(), inputs, Options{
		Threads:        2,
		Stats:          true,
		ExactThreshold: sketch.DefaultExactThreshold,
		ForeignKeys:    true,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	orders := pkg.Resources[0]
	var found bool
	for _, fk := range orders.ForeignKeys {
		if fk.Fields[0] == "customer_id" && fk.Reference.Resource == "customers" && fk.Reference.Fields[0] == "id" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a foreign key from orders.customer_id to customers.id, got %+v", orders.ForeignKeys)
	}

	for _, fk := range orders.ForeignKeys {
		if fk.Fields[0] == "id" {
			t.Fatalf("orders.id should not be detected as a subset of customers.id, got %+v", fk)
		}
	}
}

func TestRunNoForeignKeysWhenDisabled(t *testing.T) {
	inputs := []Input{
		{Name: "orders", Path: "orders.csv", Data: strings.NewReader("id,customer_id\n1,7\n")},
		{Name: "customers", Path: "customers.csv", Data: strings.NewReader("id\n7\n")},
	}
	pkg, err := Run(context.Background(), inputs, Options{Threads: 2, Stats: true, ExactThreshold: sketch.DefaultExactThreshold})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(pkg.Resources[0].ForeignKeys) != 0 {
		t.Fatalf("expected no foreign keys when ForeignKeys is disabled, got %+v", pkg.Resources[0].ForeignKeys)
	}
}

type failingReader struct{}

func (failingReader) Read(p []byte) (int, error) {
	return 0, errors.New("simulated read failure")
}

func TestRunOneResourceFailureDoesNotAbortSiblings(t *testing.T) {
	inputs := []Input{
		{Name: "broken", Path: "broken.csv", Data: failingReader{}},
		{Name: "widgets", Path: "widgets.csv", Data: strings.NewReader("id\n1\n2\n")},
	}
	pkg, err := Run(context.Background(), inputs, Options{Threads: 2, Stats: true})
	if err == nil {
		t.Fatal("expected a joined error naming the broken resource")
	}
	if len(pkg.Resources) != 1 || pkg.Resources[0].Name != "widgets" {
		t.Fatalf("expected the surviving resource's Package entry despite the sibling failure, got %+v", pkg.Resources)
	}
}

func TestRunPropagatesCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	inputs := []Input{
		{Name: "widgets", Path: "widgets.csv", Data: strings.NewReader("id\n1\n2\n3\n")},
	}
	_, err := Run(ctx, inputs, Options{Threads: 1, Stats: true})
	if err == nil {
		t.Fatal("expected an error from an already-cancelled context")
	}
}
