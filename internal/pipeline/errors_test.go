package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_MarshalJSONHidesCause(t *testing.T) {
	err := newError(KindAcquisitionFailed, "Audio download failed.", errors.New("/tmp/secret path"))

	b, mErr := json.Marshal(err)
	require.NoError(t, mErr)
	assert.JSONEq(t, `{"code":"ACQUISITION_FAILED","message":"Audio download failed."}`, string(b))
}

func TestKindOf(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", newError(KindTranscriptionFailed, "x", nil))

	kind, ok := KindOf(wrapped)
	assert.True(t, ok)
	assert.Equal(t, KindTranscriptionFailed, kind)

	_, ok = KindOf(errors.New("plain"))
	assert.False(t, ok)
}

func TestErrorKind_IsClientError(t *testing.T) {
	assert.True(t, KindInvalidReference.IsClientError())
	assert.True(t, KindUnsupportedContentType.IsClientError())
	assert.False(t, KindAcquisitionFailed.IsClientError())
	assert.False(t, KindGenerationUnavailable.IsClientError())
	assert.False(t, KindMalformedGenerationOutput.IsClientError())
}
