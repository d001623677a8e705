// Code generated by ent, DO NOT EDIT.

package predicate

import (
	"entgo.io/ent/dialect/sql"
)

// Answer is the predicate function for answer builders.
type Answer func(*sql.Selector)

// Report is the predicate function for report builders.
type Report func(*sql.Selector)

// Thread is the predicate function for thread builders.
type Thread func(*sql.Selector)

// Turn is the predicate function for turn builders.
type Turn func(*sql.Selector)

// User is the predicate function for user builders.
type User func(*sql.Selector)
