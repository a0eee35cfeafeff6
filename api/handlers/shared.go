package handlers

import cferrors "contentfp/errors"

const matchStage = "match"

// errorKindOf extracts the pipeline error Kind for observability, falling
// back to a generic label for errors raised outside the pipeline taxonomy.
func errorKindOf(err error) string {
	var pipelineErr *cferrors.Error
	if ok := extractError(err, &pipelineErr); ok {
		return string(pipelineErr.Kind)
	}
	return "unknown"
}

func extractError(err error, target **cferrors.Error) bool {
	if e, ok := err.(*cferrors.Error); ok {
		*target = e
		return true
	}
	type unwrapper interface{ Unwrap() error }
	if u, ok := err.(unwrapper); ok {
		return extractError(u.Unwrap(), target)
	}
	return false
}

// cferrorsInvalidStrategy builds the error returned when a request's
// strategy JSON names a kind outside {exact,semantic,perceptual,weighted,and,or}.
func cferrorsInvalidStrategy(kind string) error {
	return cferrors.New(matchStage, cferrors.InvalidConfig, "unknown strategy kind: "+kind)
}
