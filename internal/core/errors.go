package core

import (
	"errors"
	"fmt"
)

// Caller errors. These map to 4xx responses and are never retried.
var (
	ErrInvalidFormat = errors.New("invalid export format")
	ErrInvalidFilter = errors.New("invalid report filter")
)

// DataSourceError signals that the transaction store was unreachable or a
// query failed. Missing optional columns are handled by the schema probe
// and never produce this error.
type DataSourceError struct {
	Op  string
	Err error
}

func (e *DataSourceError) Error() string {
	return fmt.Sprintf("data source: %s: %v", e.Op, e.Err)
}

func (e *DataSourceError) Unwrap() error { return e.Err }

// RenderError signals that a renderer could not produce its payload,
// typically because a required static asset (font file) is missing.
// It aborts the request; no partial payload is returned.
type RenderError struct {
	Format string
	Err    error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s: %v", e.Format, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }
