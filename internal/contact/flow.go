// Package contact submits the storefront contact form.
package contact

import (
	"context"
	"errors"
	"net/http"

	"github.com/angelmondragon/greencart/internal/notify"
	pkgerrors "github.com/angelmondragon/greencart/pkg/errors"
	"github.com/angelmondragon/greencart/pkg/logger"
	"github.com/angelmondragon/greencart/pkg/types"
	"github.com/angelmondragon/greencart/pkg/validators"
)

const (
	MsgSent          = "Message sent successfully!"
	MsgFailed        = "Failed to send message."
	MsgFillAllFields = "Please fill in all fields."

	maxNameLen    = 120
	maxEmailLen   = 254
	maxMessageLen = 5000
)

type API interface {
	SubmitContact(ctx context.Context, msg types.ContactMessage) (int, error)
}

type Flow struct {
	api    API
	notify notify.Notifier
	logg   *logger.Logger
}

func NewFlow(api API, n notify.Notifier, logg *logger.Logger) (*Flow, error) {
	if api == nil {
		return nil, errors.New("contact api is required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	if n == nil {
		n = notify.NewLog(logg)
	}
	return &Flow{api: api, notify: n, logg: logg}, nil
}

// Submit sends the form. On success it returns an empty form for the caller
// to render; on failure it returns the form unchanged so nothing is lost.
func (f *Flow) Submit(ctx context.Context, form types.ContactMessage) (types.ContactMessage, error) {
	clean := types.ContactMessage{
		Name:    validators.SanitizeString(form.Name, maxNameLen),
		Email:   validators.SanitizeString(form.Email, maxEmailLen),
		Message: validators.SanitizeString(form.Message, maxMessageLen),
	}
	if err := validators.Struct(clean); err != nil {
		if validators.HasMissing(err) {
			f.notify.Error(ctx, MsgFillAllFields)
		} else {
			f.notify.Error(ctx, MsgFailed)
		}
		return form, err
	}

	status, err := f.api.SubmitContact(ctx, clean)
	if err != nil || status != http.StatusOK {
		if err == nil {
			err = pkgerrors.New(pkgerrors.CodeDependency, "unexpected contact status").
				WithDetails(map[string]any{"status": status})
		}
		f.logg.Warn(ctx, "contact submission failed: "+err.Error())
		f.notify.Error(ctx, MsgFailed)
		return form, err
	}
	f.notify.Success(ctx, MsgSent)
	return types.ContactMessage{}, nil
}
