package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Answer holds the schema definition for the Answer entity.
// One row per (owner, stage, question): the user's questionnaire answer for
// a workshop stage, editable until the stage report is finalized.
type Answer struct {
	ent.Schema
}

// Fields of the Answer.
func (Answer) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("answer_id").
			Unique().
			Immutable(),
		field.String("owner_id").
			Immutable(),
		field.String("stage").
			Immutable(),
		field.String("question").
			Immutable().
			Comment("Questionnaire field key (e.g. 'motivating_activities')"),
		field.Text("response"),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
		field.Time("updated_at").
			Default(time.Now),
	}
}

// Edges of the Answer.
func (Answer) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("owner", User.Type).
			Ref("answers").
			Field("owner_id").
			Unique().
			Required().
			Immutable(),
	}
}

// Indexes of the Answer.
func (Answer) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("owner_id", "stage", "question").
			Unique(),
	}
}
