package session

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/fypdesk/core"
	"github.com/trezcool/fypdesk/core/user"
)

// Provider is the part of the session the page view-models depend on.
type Provider interface {
	User() (user.User, bool)
	Refresh(ctx context.Context) (user.User, error)
	HandleAuthFailure(err error) bool
}

var _ Provider = (*Store)(nil)

// Surface applies the error policy of the view-models to a failed API call:
// authentication failures end the session, server and validation messages pass through untouched,
// anything else is a transport failure and gets logged.
func Surface(p Provider, logger core.Logger, msg string, err error) error {
	if err == nil {
		return nil
	}
	if p != nil && p.HandleAuthFailure(err) {
		return errors.Wrap(err, msg)
	}
	switch errors.Cause(err).(type) {
	case *core.APIError, *core.ValidationError:
	default:
		if errors.Cause(err) != context.Canceled {
			logger.Error(msg, err)
		}
	}
	return errors.Wrap(err, msg)
}
