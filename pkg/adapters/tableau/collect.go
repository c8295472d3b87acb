package tableau

import (
	"context"
	"fmt"
	"maps"

	"github.com/aretw0/contentgraph/pkg/domain"
	"github.com/aretw0/contentgraph/pkg/ports"
)

// Collect walks every container visible to an authenticated fetcher and freezes the
// result into a snapshot. Containers are fetched one at a time, in listing order.
//
// Items without an id are sheets that were never published as views and are left out.
// Sub-references are indexed on first sight; later mentions keep the first payload.
func Collect(ctx context.Context, fetcher ports.ContentFetcher, siteName string, layout domain.Layout) (*domain.Snapshot, error) {
	ids, err := fetcher.ListContainers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list containers: %w", err)
	}

	b := domain.NewSnapshotBuilder(siteName)
	for _, containerID := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		detail, err := fetcher.GetContainerDetail(ctx, containerID)
		if err != nil {
			return nil, fmt.Errorf("get container %q: %w", containerID, err)
		}
		if err := b.AddContainer(containerID, detail); err != nil {
			return nil, &domain.TranslationError{Kind: domain.ContentTypeContainer, ID: containerID, Reason: err.Error()}
		}

		items, err := layout.Items(detail)
		if err != nil {
			return nil, &domain.TranslationError{
				Kind: domain.ContentTypeContainer, ID: containerID, Field: layout.ItemsField, Reason: err.Error(),
			}
		}
		for _, item := range items {
			itemID, ok := layout.ID(item)
			if !ok {
				continue
			}
			props := maps.Clone(item)
			props[string(domain.ContentTypeContainer)] = map[string]any{layout.IDField: containerID}
			if err := b.AddItem(containerID, itemID, props); err != nil {
				return nil, &domain.TranslationError{Kind: domain.ContentTypeItem, ID: itemID, Reason: err.Error()}
			}

			refs, err := layout.SubReferences(item)
			if err != nil {
				return nil, &domain.TranslationError{Kind: domain.ContentTypeItem, ID: itemID, Reason: err.Error()}
			}
			for _, ref := range refs {
				refID, ok := layout.ID(ref)
				if !ok {
					continue
				}
				if _, err := b.AddSubReference(refID, ref); err != nil {
					return nil, &domain.TranslationError{Kind: domain.ContentTypeSubReference, ID: refID, Reason: err.Error()}
				}
			}
		}
	}
	return b.Build(), nil
}
