package session

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestOpenFallsBackToMemStoreWhenNoURL(t *testing.T) {
	log := logrus.New()
	store := Open("", log)
	_, ok := store.(*MemStore)
	require.True(t, ok)

	sess, err := store.CreateSession("dev-1", "/dev/ttyUSB0")
	require.NoError(t, err)
	require.NotEmpty(t, sess.ID)
}

func TestOpenFallsBackToMemStoreOnInvalidDSN(t *testing.T) {
	log := logrus.New()
	store := Open("/nonexistent/dir/does/not/exist.db", log)
	_, ok := store.(*MemStore)
	require.True(t, ok)
}
