package pipeline

import (
	"context"
	"errors"
	"io/fs"

	"github.com/sbrg/gds/pkg/algo"
	"github.com/sbrg/gds/pkg/cache"
	gdserrors "github.com/sbrg/gds/pkg/errors"
	"github.com/sbrg/gds/pkg/graph"
	"github.com/sbrg/gds/pkg/graphdb"
	"github.com/sbrg/gds/pkg/radiate"
	"github.com/sbrg/gds/pkg/trace"
)

// classify wraps package errors in a coded error, using fallback for
// errors no package sentinel matches. Errors that already carry a code are
// returned unchanged.
func classify(err error, fallback gdserrors.Code, stage string) error {
	if err == nil || gdserrors.GetCode(err) != "" {
		return err
	}
	code := codeOf(err)
	if code == "" {
		code = fallback
	}
	return gdserrors.Wrap(code, err, "%s", stage)
}

func codeOf(err error) gdserrors.Code {
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return gdserrors.ErrCodeTimeout
	case errors.Is(err, fs.ErrNotExist):
		return gdserrors.ErrCodeNotFound
	case errors.Is(err, graph.ErrNodeNotFound):
		return gdserrors.ErrCodeNodeNotFound
	case errors.Is(err, trace.ErrNoTraces), errors.Is(err, algo.ErrNoPath):
		return gdserrors.ErrCodeNoPath
	case errors.Is(err, algo.ErrNoConvergence):
		return gdserrors.ErrCodeNoConvergence
	case errors.Is(err, graphdb.ErrInvalidIdentifier):
		return gdserrors.ErrCodeInvalidIdentifier
	case errors.Is(err, trace.ErrUnknownNodeSet), errors.Is(err, trace.ErrDuplicateNodeSet),
		errors.Is(err, algo.ErrNoSources), errors.Is(err, radiate.ErrNoSources):
		return gdserrors.ErrCodeInvalidNodeSet
	case errors.Is(err, trace.ErrInvalidMode), errors.Is(err, radiate.ErrInvalidDirection),
		errors.Is(err, algo.ErrNegativeWeight), errors.Is(err, algo.ErrBadPersonalization):
		return gdserrors.ErrCodeInvalidInput
	case errors.Is(err, graphdb.ErrNoURI), errors.Is(err, graphdb.ErrNilValue), errors.Is(err, cache.ErrBackend):
		return gdserrors.ErrCodeDatabase
	}
	return ""
}
