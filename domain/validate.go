package domain

import (
	stderrors "errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"

	"upload-lab/errors"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Fingerprints and names become file names under the uploads root.
	_ = v.RegisterValidation("pathsegment", func(fl validator.FieldLevel) bool {
		return IsPathSegment(fl.Field().String())
	})
	return v
}

// MaxNameBytes bounds a file name the way file systems do, in bytes.
const MaxNameBytes = 255

// IsPathSegment reports whether s can be used as a single file name.
func IsPathSegment(s string) bool {
	if s == "" || s == "." || s == ".." || len(s) > MaxNameBytes {
		return false
	}
	if strings.ContainsAny(s, `/\`+"\x00") {
		return false
	}
	return filepath.Base(s) == s
}

// Validate checks the tags of a chunk before anything is written.
func (m ChunkMeta) Validate() error {
	if err := validate.Struct(m); err != nil {
		return toDomainError(err)
	}
	return nil
}

// Validate checks a merge request before the staging area is touched.
func (r MergeRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return toDomainError(err)
	}
	return nil
}

func toDomainError(err error) error {
	var fieldErrors validator.ValidationErrors
	if !stderrors.As(err, &fieldErrors) || len(fieldErrors) == 0 {
		return fmt.Errorf("%w: %v", errors.ErrInvalidChunk, err)
	}
	for _, fe := range fieldErrors {
		if fe.Tag() == "required" {
			return fmt.Errorf("%w: %s", errors.ErrMissingField, strings.ToLower(fe.Field()))
		}
	}
	for _, fe := range fieldErrors {
		switch fe.Field() {
		case "Total":
			return fmt.Errorf("%w: got %v", errors.ErrInvalidTotal, fe.Value())
		case "FileSize":
			return fmt.Errorf("%w: declared size %v", errors.ErrEmptyFile, fe.Value())
		}
	}
	fe := fieldErrors[0]
	return fmt.Errorf("%w: %s fails %s", errors.ErrInvalidChunk, strings.ToLower(fe.Field()), fe.Tag())
}
