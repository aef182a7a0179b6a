package loadstate

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jonathan/fittrack/internal/session"
	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestAsync_Ready(t *testing.T) {
	ch := Async(context.Background(), func(context.Context) (int, error) { return 42, nil })
	res := <-ch
	assert.True(t, res.Ok())
	assert.Equal(t, 42, res.Value)

	_, open := <-ch
	assert.False(t, open, "channel closes after the single result")
}

func TestAsync_Failed(t *testing.T) {
	res := <-Async(context.Background(), func(context.Context) (string, error) {
		return "", errors.New("not found")
	})
	assert.Equal(t, Failed, res.Status)
	assert.EqualError(t, res.Err, "not found")
}

func TestAsync_AbandonedDoesNotLeak(t *testing.T) {
	release := make(chan struct{})
	ch := Async(context.Background(), func(context.Context) (int, error) {
		<-release
		return 1, nil
	})
	close(release)
	_ = ch // never read
}

func TestFail_Unauthenticated(t *testing.T) {
	res := Fail[int](fmt.Errorf("load profile: %w", session.ErrUnauthenticated))
	assert.Equal(t, Unauthenticated, res.Status)
	assert.False(t, res.Ok())
}

func TestPending(t *testing.T) {
	assert.Equal(t, Loading, Pending[string]().Status)
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "saving", Saving.String())
	assert.Equal(t, "unknown", Status(99).String())
}
