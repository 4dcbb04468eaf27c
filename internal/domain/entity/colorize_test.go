package entity

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindOf_Wrapped(t *testing.T) {
	base := &ColorizeError{Kind: KindDecodeFailed, Err: errors.New("bad header")}
	err := fmt.Errorf("handler: %w", base)

	require.Equal(t, KindDecodeFailed, KindOf(err))
	require.Equal(t, ErrorKind(0), KindOf(errors.New("plain")))
}

func TestColorizeError_Message(t *testing.T) {
	require.Contains(t, (&ColorizeError{Kind: KindNotReady}).Message(), "loading")
	require.Contains(t, (&ColorizeError{Kind: KindDecodeFailed}).Message(), "Could not read image")
	loadFailed := (&ColorizeError{Kind: KindLoadFailed, Err: errors.New("no lib")}).Message()
	require.True(t, strings.HasPrefix(loadFailed, MsgLoading))
	require.Contains(t, loadFailed, "no lib")

	msg := (&ColorizeError{Kind: KindInferenceFailed, Err: errors.New("boom"), Trace: "goroutine 1"}).Message()
	require.Contains(t, msg, "boom")
	require.Contains(t, msg, "goroutine 1")
}
