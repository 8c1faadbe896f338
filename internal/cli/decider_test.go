package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/fencrypt/internal/common"
	"github.com/dmitrijs2005/fencrypt/internal/reseal"
	"github.com/eiannone/keyboard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyDecider(t *testing.T) {
	orig := getSingleKey
	t.Cleanup(func() { getSingleKey = orig })

	tests := []struct {
		name string
		ch   rune
		key  keyboard.Key
		want reseal.Decision
	}{
		{"u updates", 'u', 0, reseal.DecisionUpdate},
		{"other letter discards", 'n', 0, reseal.DecisionDiscard},
		{"special key discards", 0, keyboard.KeyEsc, reseal.DecisionDiscard},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			getSingleKey = func() (rune, keyboard.Key, error) { return tt.ch, tt.key, nil }

			var buf bytes.Buffer
			d := keyDecider{reporter: NewReporter(&buf, false), workDir: "docs"}
			got, err := d.Decide(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Contains(t, buf.String(), "Unpacked pack into docs")
		})
	}
}

func TestKeyDecider_Errors(t *testing.T) {
	orig := getSingleKey
	t.Cleanup(func() { getSingleKey = orig })

	getSingleKey = func() (rune, keyboard.Key, error) { return 0, 0, errors.New("no tty") }
	d := keyDecider{reporter: NewReporter(&bytes.Buffer{}, false)}
	_, err := d.Decide(context.Background())
	require.ErrorIs(t, err, common.ErrIO)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = d.Decide(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
