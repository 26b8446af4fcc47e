package html

import (
	"strings"

	"github.com/KKaradi/syfhack10year/internal/core/domain"
)

type label struct {
	prefix string
	set    func(e *domain.SubEntity, value string)
}

// entityLabels lists the recognised "<Label>:" lines per entity kind.
var entityLabels = map[domain.EntityKind][]label{
	domain.EntityResource: {
		{"Type:", func(e *domain.SubEntity, v string) { e.Type = v }},
		{"Description:", func(e *domain.SubEntity, v string) { e.Description = v }},
		{"Owner:", func(e *domain.SubEntity, v string) { e.Owner = v }},
		{"Programming Languages:", func(e *domain.SubEntity, v string) { e.Languages = v }},
		{"Development Frameworks:", func(e *domain.SubEntity, v string) { e.Frameworks = v }},
		{"Recommended IDE:", func(e *domain.SubEntity, v string) { e.IDE = v }},
	},
	domain.EntityDatabase: {
		{"Type:", func(e *domain.SubEntity, v string) { e.Type = v }},
		{"Description:", func(e *domain.SubEntity, v string) { e.Description = v }},
		{"Connection String:", func(e *domain.SubEntity, v string) { e.Connection = v }},
		{"Database Owner:", func(e *domain.SubEntity, v string) { e.Owner = v }},
	},
	domain.EntityService: {
		{"Description:", func(e *domain.SubEntity, v string) { e.Description = v }},
		{"Environment:", func(e *domain.SubEntity, v string) { e.Environment = v }},
	},
}

func applyLabel(e *domain.SubEntity, text string) {
	for _, l := range entityLabels[e.Kind] {
		if strings.HasPrefix(text, l.prefix) {
			l.set(e, labelValue(text, l.prefix))
			return
		}
	}
}

func labelValue(text, prefix string) string {
	return strings.TrimSpace(strings.TrimPrefix(text, prefix))
}
