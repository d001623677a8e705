package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Thread holds the schema definition for the Thread entity.
// A thread correlates one (owner, stage) pair to one remote conversation
// object; the id IS the remote conversation id.
type Thread struct {
	ent.Schema
}

// Fields of the Thread.
func (Thread) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("thread_id").
			Unique().
			Immutable().
			Comment("Remote conversation id (issued by the assistant service)"),
		field.String("owner_id").
			Immutable(),
		field.String("stage").
			Immutable().
			Comment("Workshop stage name (e.g. 'swot', 'mission')"),
		field.String("title"),
		field.Enum("status").
			Values("active", "archived").
			Default("active"),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
	}
}

// Edges of the Thread.
func (Thread) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("owner", User.Type).
			Ref("threads").
			Field("owner_id").
			Unique().
			Required().
			Immutable(),
		edge.To("turns", Turn.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
		edge.To("reports", Report.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
	}
}

// Indexes of the Thread.
func (Thread) Indexes() []ent.Index {
	return []ent.Index{
		// Most-recent-first lookup per owner+stage
		index.Fields("owner_id", "stage", "created_at"),
		// At most one ACTIVE thread per (owner, stage); enforced as a partial
		// unique index in the SQL migration (Ent cannot express the predicate).
		// Kept here as a plain index so Ent's schema diff stays aligned.
		index.Fields("owner_id", "stage"),
	}
}
