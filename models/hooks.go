package models

import (
	"reflect"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

var uuidType = reflect.TypeOf(uuid.UUID{})

// RegisterCallbacks installs a create callback that assigns a random uuid to
// any zero uuid primary key, so models work on databases without
// gen_random_uuid().
func RegisterCallbacks(db *gorm.DB) error {
	return db.Callback().Create().Before("gorm:create").Register("app:assign_uuid", assignUUID)
}

func assignUUID(tx *gorm.DB) {
	if tx.Statement.Schema == nil {
		return
	}
	field := tx.Statement.Schema.PrioritizedPrimaryField
	if field == nil || field.FieldType != uuidType {
		return
	}
	rv := tx.Statement.ReflectValue
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			setUUID(tx, field, rv.Index(i))
		}
	case reflect.Struct:
		setUUID(tx, field, rv)
	}
}

func setUUID(tx *gorm.DB, field *schema.Field, rv reflect.Value) {
	if _, zero := field.ValueOf(tx.Statement.Context, rv); zero {
		_ = field.Set(tx.Statement.Context, rv, uuid.New())
	}
}

// All lists every persisted model in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Counter{},
		&Musician{},
		&Prince{},
		&Course{},
		&Enrollment{},
		&Section{},
		&TutorRequest{},
		&Notation{},
		&Feedback{},
		&FAQ{},
		&Advertisement{},
		&BookProgram{},
		&Notification{},
	}
}
