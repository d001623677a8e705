package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Turn holds the schema definition for the Turn entity.
// One message in a conversation; append-only, never mutated after creation.
type Turn struct {
	ent.Schema
}

// Fields of the Turn.
func (Turn) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("turn_id").
			Unique().
			Immutable(),
		field.String("thread_id").
			Immutable(),
		field.Enum("role").
			Values("user", "assistant").
			Immutable(),
		field.Text("content").
			Immutable(),
		field.JSON("metadata", map[string]interface{}{}).
			Optional().
			Comment("Free-form tags (stage, turn kind)"),
		field.Time("created_at").
			Default(time.Now).
			Immutable().
			Comment("Total order within a thread"),
	}
}

// Edges of the Turn.
func (Turn) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("thread", Thread.Type).
			Ref("turns").
			Field("thread_id").
			Unique().
			Required().
			Immutable(),
	}
}

// Indexes of the Turn.
func (Turn) Indexes() []ent.Index {
	return []ent.Index{
		// Conversation order
		index.Fields("thread_id", "created_at"),
	}
}
