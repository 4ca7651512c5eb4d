// ABOUTME: CUE schema check for snapshot documents before they are imported.
// ABOUTME: Rejects malformed JSON, missing entry lists, blank text, and unknown moods.
package backup

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cuejson "cuelang.org/go/encoding/json"
)

// ErrInvalidFormat marks a document that is not a usable snapshot.
var ErrInvalidFormat = errors.New("invalid backup file format")

//go:embed schema.cue
var schemaSource string

// Validate checks data against the snapshot schema.
func Validate(data []byte) error {
	if !json.Valid(data) {
		return fmt.Errorf("%w: not valid JSON", ErrInvalidFormat)
	}

	expr, err := cuejson.Extract("snapshot.json", data)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	// A fresh context per call; cue values are not shared across goroutines.
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue")).
		LookupPath(cue.ParsePath("#Snapshot"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("failed to compile snapshot schema: %w", err)
	}

	doc := ctx.BuildExpr(expr)
	if err := doc.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if !doc.LookupPath(cue.ParsePath("entries")).Exists() {
		return fmt.Errorf("%w: missing entries list", ErrInvalidFormat)
	}
	if err := schema.Unify(doc).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidFormat, cueerrors.Details(err, nil))
	}
	return nil
}
