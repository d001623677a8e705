package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Report holds the schema definition for the Report entity.
// The durable artifact derived from a stage's conversation. Uniqueness per
// (thread_id, kind) is by convention: callers operate on the most recent row
// and never insert a second one once it exists.
type Report struct {
	ent.Schema
}

// Fields of the Report.
func (Report) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("report_id").
			Unique().
			Immutable(),
		field.String("thread_id").
			Immutable(),
		field.String("kind").
			Immutable().
			Comment("Report kind, normally the stage name"),
		field.String("title"),
		field.Text("content").
			Comment("Replaced wholesale on update, never field-merged"),
		field.Enum("status").
			Values("draft", "generated", "finalized").
			Default("draft"),
		field.Text("insights").
			Optional().
			Nillable(),
		field.Text("recommendations").
			Optional().
			Nillable(),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
		field.Time("updated_at").
			Default(time.Now),
	}
}

// Edges of the Report.
func (Report) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("thread", Thread.Type).
			Ref("reports").
			Field("thread_id").
			Unique().
			Required().
			Immutable(),
	}
}

// Indexes of the Report.
func (Report) Indexes() []ent.Index {
	return []ent.Index{
		// Most-recent-first lookup per thread+kind
		index.Fields("thread_id", "kind", "created_at"),
	}
}
