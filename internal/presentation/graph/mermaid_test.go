package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/contentgraph/internal/presentation/graph"
	"github.com/aretw0/contentgraph/pkg/domain"
)

func TestGenerateMermaid(t *testing.T) {
	source := domain.Descriptor{
		Key:        domain.NewKey("tableau", "data_source", "ds-1"),
		Kind:       domain.ContentTypeSubReference,
		Properties: map[string]any{"name": "Orders"},
	}
	view := domain.Descriptor{
		Key:        domain.NewKey("tableau", "view", "wb-1", "v.1"),
		Kind:       domain.ContentTypeItem,
		Deps:       []domain.Key{source.Key},
		Properties: map[string]any{"name": `Sales "2024"`},
	}

	tests := []struct {
		name        string
		descs       []domain.Descriptor
		overlay     *graph.Overlay
		contains    []string
		notContains []string
	}{
		{
			name:  "Shapes by kind",
			descs: []domain.Descriptor{view, source},
			contains: []string{
				"graph LR",
				`n0["Sales '2024'"]`,
				`n1[("Orders")]`,
			},
		},
		{
			name:  "Edges from dependency to reader",
			descs: []domain.Descriptor{view, source},
			contains: []string{
				"n1 --> n0",
			},
		},
		{
			name:  "Unknown dependency",
			descs: []domain.Descriptor{view},
			contains: []string{
				`n1{{"tableau/data_source/ds-1"}}`,
			},
		},
		{
			name:    "Focus overlay",
			descs:   []domain.Descriptor{view, source},
			overlay: &graph.Overlay{Focus: view.Key.String()},
			contains: []string{
				"classDef focus",
				"class n0 focus;",
				"class n1 dependency;",
			},
		},
		{
			name:        "Unknown focus is not styled",
			descs:       []domain.Descriptor{view, source},
			overlay:     &graph.Overlay{Focus: "tableau/view/missing"},
			contains:    []string{"classDef focus"},
			notContains: []string{"focus;"},
		},
		{
			name:        "No overlay",
			descs:       []domain.Descriptor{view, source},
			notContains: []string{"classDef"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := graph.GenerateMermaid(tt.descs, tt.overlay)
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("Expected output to contain %q, got:\n%s", want, got)
				}
			}
			for _, unwanted := range tt.notContains {
				if strings.Contains(got, unwanted) {
					t.Errorf("Expected output not to contain %q, got:\n%s", unwanted, got)
				}
			}
		})
	}
}

func TestGenerateMermaid_DistinctKeysGetDistinctNodes(t *testing.T) {
	dash := domain.Descriptor{
		Key:        domain.NewKey("my-prefix", "data_source", "X"),
		Kind:       domain.ContentTypeSubReference,
		Properties: map[string]any{"name": "dash"},
	}
	under := domain.Descriptor{
		Key:        domain.NewKey("my_prefix", "data_source", "X"),
		Kind:       domain.ContentTypeSubReference,
		Properties: map[string]any{"name": "underscore"},
	}
	view := domain.Descriptor{
		Key:        domain.NewKey("my-prefix", "view", "wb", "A"),
		Kind:       domain.ContentTypeItem,
		Deps:       []domain.Key{under.Key},
		Properties: map[string]any{"name": "A"},
	}

	got := graph.GenerateMermaid([]domain.Descriptor{dash, under, view}, nil)
	for _, want := range []string{`n0[("dash")]`, `n1[("underscore")]`, `n2["A"]`, "n1 --> n2"} {
		if !strings.Contains(got, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, got)
		}
	}
	if strings.Contains(got, "n0 --> n2") {
		t.Errorf("Dependency attached to the wrong node:\n%s", got)
	}
}
