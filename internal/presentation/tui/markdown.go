package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/contentgraph/pkg/domain"
)

// DescribeMarkdown renders descriptors as a markdown report: one section per kind, one
// table row per descriptor.
func DescribeMarkdown(site string, descs []domain.Descriptor) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Site `%s`\n\n", site)

	var items, subs []domain.Descriptor
	for _, d := range descs {
		if d.Kind == domain.ContentTypeSubReference {
			subs = append(subs, d)
		} else {
			items = append(items, d)
		}
	}
	fmt.Fprintf(&sb, "%d views, %d data sources.\n\n", len(items), len(subs))

	if len(items) > 0 {
		sb.WriteString("## Views\n\n")
		sb.WriteString("| Key | Name | Workbook | Depends on |\n|---|---|---|---|\n")
		for _, d := range items {
			deps := make([]string, len(d.Deps))
			for i, dep := range d.Deps {
				deps[i] = "`" + dep.String() + "`"
			}
			fmt.Fprintf(&sb, "| `%s` | %s | %s | %s |\n",
				d.Key, cell(d.Properties["name"]), cell(d.Properties["container_name"]), strings.Join(deps, "<br>"))
		}
		sb.WriteString("\n")
	}

	if len(subs) > 0 {
		sb.WriteString("## Data sources\n\n")
		sb.WriteString("| Key | Name | Used by |\n|---|---|---|\n")
		usedBy := make(map[string]int)
		for _, d := range items {
			for _, dep := range d.Deps {
				usedBy[dep.String()]++
			}
		}
		for _, d := range subs {
			fmt.Fprintf(&sb, "| `%s` | %s | %d |\n", d.Key, cell(d.Properties["name"]), usedBy[d.Key.String()])
		}
		sb.WriteString("\n")
	}

	if tags := tagSummary(descs); tags != "" {
		sb.WriteString("## Tags\n\n")
		sb.WriteString(tags)
	}
	return sb.String()
}

func cell(v any) string {
	s, ok := domain.AsString(v)
	if !ok {
		return "-"
	}
	return strings.ReplaceAll(s, "|", "\\|")
}

func tagSummary(descs []domain.Descriptor) string {
	set := make(map[string]bool)
	for _, d := range descs {
		for k, v := range d.Tags {
			set[k+"="+v] = true
		}
	}
	if len(set) == 0 {
		return ""
	}
	tags := make([]string, 0, len(set))
	for t := range set {
		tags = append(tags, t)
	}
	sort.Strings(tags)

	var sb strings.Builder
	for _, t := range tags {
		fmt.Fprintf(&sb, "- `%s`\n", t)
	}
	return sb.String()
}
