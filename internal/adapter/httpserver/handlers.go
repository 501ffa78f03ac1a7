package httpserver

import (
	"github.com/pscheid92/themebridge/internal/domain"
	"github.com/pscheid92/themebridge/internal/mainthread"
	"github.com/pscheid92/themebridge/internal/overlay"
	apperrors "github.com/pscheid92/themebridge/internal/platform/errors"
	"github.com/pscheid92/themebridge/internal/theme"
)

var errorRules = []apperrors.Rule{
	{Target: domain.ErrIndexOutOfRange, Type: apperrors.TypeValidation},
	{Target: domain.ErrInvalidOrder, Type: apperrors.TypeValidation},
	{Target: domain.ErrUnknownScreen, Type: apperrors.TypeValidation},
	{Target: overlay.ErrUnknownType, Type: apperrors.TypeValidation},
	{Target: theme.ErrThemeNotFound, Type: apperrors.TypeNotFound},
	{Target: theme.ErrNoThemeSupports, Type: apperrors.TypeUnsupported},
	{Target: overlay.ErrDuplicate, Type: apperrors.TypeConflict},
	{Target: overlay.ErrNotFound, Type: apperrors.TypeNotFound},
	{Target: mainthread.ErrStopped, Type: apperrors.TypeInternal, Message: "host loop is not running"},
}

// classify maps domain errors onto structured API errors. Anything it does
// not recognize is left to AsStructuredError at the boundary.
func classify(err error) error {
	return apperrors.Classify(err, errorRules)
}
