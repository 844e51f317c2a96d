package record

import (
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// recordSchema lists the fields every stored version must carry. Required
// fields use the "!:" marker: an absent field is an error, not a default.
// Extra fields are tolerated so older or newer writers stay readable.
const recordSchema = `
#RelationRef: {
	id!:                 string
	name!:               string
	classificationCode!: string
	...
}

#Record: {
	id!:                 string & !=""
	createdOrUpdatedAt!: string
	name!:               string
	classificationCode!: string
	inputs!: [...#RelationRef]
	usedBy!: [...#RelationRef]
	...
}
`

// cue.Context is not safe for concurrent use.
var schema struct {
	once sync.Once
	mu   sync.Mutex
	ctx  *cue.Context
	def  cue.Value
	err  error
}

func loadSchema() {
	schema.ctx = cuecontext.New()
	v := schema.ctx.CompileString(recordSchema)
	if err := v.Err(); err != nil {
		schema.err = fmt.Errorf("compile record schema: %w", err)
		return
	}
	schema.def = v.LookupPath(cue.ParsePath("#Record"))
	schema.err = schema.def.Err()
}

// checkSchema reports whether data is JSON that carries every required
// field with the expected type.
func checkSchema(data []byte) error {
	schema.once.Do(loadSchema)
	if schema.err != nil {
		return schema.err
	}

	schema.mu.Lock()
	defer schema.mu.Unlock()

	v := schema.ctx.CompileBytes(data)
	if err := v.Err(); err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	if v.Kind() != cue.StructKind {
		return fmt.Errorf("expected object, got %s", v.Kind())
	}
	if err := schema.def.Unify(v).Validate(cue.Concrete(true)); err != nil {
		return err
	}
	return nil
}
