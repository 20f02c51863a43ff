package log_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"p4nett/internal/log"
	"p4nett/internal/serrors"
)

func TestSetup(t *testing.T) {
	defer zap.ReplaceGlobals(zap.NewNop())

	testCases := map[string]struct {
		level   string
		format  string
		wantErr bool
	}{
		"debug human": {level: "debug", format: "human"},
		"info json":   {level: "info", format: "json"},
		"default fmt": {level: "warn"},
		"bad level":   {level: "loud", wantErr: true},
		"bad format":  {level: "info", format: "xml", wantErr: true},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			logger, err := log.Setup(tc.level, tc.format)
			if tc.wantErr {
				assert.ErrorIs(t, err, serrors.ErrConfig)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, logger)
		})
	}
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, log.OrNop(nil))
	l := zap.NewExample()
	assert.Same(t, l, log.OrNop(l))
}
