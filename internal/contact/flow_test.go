package contact

import (
	"context"
	"net/http"
	"testing"

	"github.com/angelmondragon/greencart/internal/notify"
	pkgerrors "github.com/angelmondragon/greencart/pkg/errors"
	"github.com/angelmondragon/greencart/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAPI struct {
	status int
	err    error
	calls  []types.ContactMessage
}

func (s *stubAPI) SubmitContact(_ context.Context, msg types.ContactMessage) (int, error) {
	s.calls = append(s.calls, msg)
	return s.status, s.err
}

func form() types.ContactMessage {
	return types.ContactMessage{Name: "Ada", Email: "ada@greencart.test", Message: " Hello there "}
}

func TestSubmitSuccessClearsForm(t *testing.T) {
	api := &stubAPI{status: http.StatusOK}
	rec := &notify.Recorder{}
	flow, err := NewFlow(api, rec, nil)
	require.NoError(t, err)

	out, err := flow.Submit(context.Background(), form())
	require.NoError(t, err)
	assert.Equal(t, types.ContactMessage{}, out)
	require.Len(t, api.calls, 1)
	assert.Equal(t, "Hello there", api.calls[0].Message)
	assert.Equal(t, 1, rec.Count(notify.KindSuccess, MsgSent))
}

func TestSubmitNon200KeepsForm(t *testing.T) {
	cases := map[string]*stubAPI{
		"created status": {status: http.StatusCreated},
		"server error":   {status: http.StatusInternalServerError, err: pkgerrors.New(pkgerrors.CodeDependency, "internal server error")},
		"network error":  {err: pkgerrors.New(pkgerrors.CodeDependency, "dial tcp")},
	}
	for name, api := range cases {
		t.Run(name, func(t *testing.T) {
			rec := &notify.Recorder{}
			flow, err := NewFlow(api, rec, nil)
			require.NoError(t, err)

			out, err := flow.Submit(context.Background(), form())
			require.Error(t, err)
			assert.Equal(t, form(), out)
			assert.Equal(t, 1, rec.Count(notify.KindError, MsgFailed))
		})
	}
}

func TestSubmitMissingFieldsSkipsNetwork(t *testing.T) {
	api := &stubAPI{status: http.StatusOK}
	rec := &notify.Recorder{}
	flow, err := NewFlow(api, rec, nil)
	require.NoError(t, err)

	_, err = flow.Submit(context.Background(), types.ContactMessage{Name: "Ada"})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
	assert.Empty(t, api.calls)
	assert.Equal(t, 1, rec.Count(notify.KindError, MsgFillAllFields))
}
