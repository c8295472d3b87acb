package contentgraph_test

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/contentgraph"
	"github.com/aretw0/contentgraph/pkg/domain"
	"github.com/aretw0/contentgraph/pkg/ports"
)

func ExampleWorkspace_Translate() {
	ws, err := contentgraph.New(func() (ports.ContentFetcher, error) {
		return nil, errors.New("offline")
	}, "acme")
	if err != nil {
		panic(err)
	}

	b := domain.NewSnapshotBuilder("acme")
	_ = b.AddContainer("wb", map[string]any{"luid": "wb", "name": "Sales"})
	_ = b.AddItem("wb", "A", map[string]any{
		"luid": "A",
		"name": "Overview",
		"parentEmbeddedDatasources": []any{
			map[string]any{"parentPublishedDatasources": []any{
				map[string]any{"luid": "X", "name": "Orders"},
			}},
		},
	})
	_, _ = b.AddSubReference("X", map[string]any{"luid": "X", "name": "Orders"})

	descs, err := ws.Translate(context.Background(), b.Build())
	if err != nil {
		panic(err)
	}
	for _, d := range descs {
		fmt.Println(d.Key, d.Deps)
	}
	// Output:
	// tableau/view/wb/A [tableau/data_source/X]
	// tableau/data_source/X []
}
