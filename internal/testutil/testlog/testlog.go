package testlog

import (
	"testing"

	"github.com/danmuck/xwire/internal/logging"
)

func Start(t *testing.T) {
	t.Helper()
	logging.ConfigureTests()
	logging.Logger().Info().Str("test", t.Name()).Msg("start")
}
