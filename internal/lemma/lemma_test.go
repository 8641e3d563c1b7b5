package lemma

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestSnowball_TokenizesAndRejoins(t *testing.T) {
	l := NewSnowball()

	got := l.Normalize("  Ping,   HOST!! ")
	assert.Equal(t, "ping host", got)

	assert.Equal(t, "", l.Normalize("?!,"))
}

func TestSnowball_StemsInflections(t *testing.T) {
	l := NewSnowball()

	assert.Equal(t, l.Normalize("processes"), l.Normalize("process"))
	assert.Equal(t, l.Normalize("running services"), l.Normalize("run service"))
	assert.Equal(t, l.Normalize("пользователя"), l.Normalize("пользователь"))
}

func TestSnowball_KeepsDigitsAndMixedScripts(t *testing.T) {
	l := NewSnowball()
	got := l.Normalize("пинг 8.8.8.8")
	assert.Equal(t, "пинг 8 8 8 8", got)
}

func TestLowercase_KeepsSpacingAndPunctuation(t *testing.T) {
	var l Lowercase
	assert.Equal(t, "  ping,   host!! ", l.Normalize("  Ping,   HOST!! "))
	assert.Equal(t, "покажи ip", l.Normalize("Покажи IP"))
}

func TestDegradeDistinction(t *testing.T) {
	input := "Show  Disk-Usage"
	assert.NotEqual(t, NewSnowball().Normalize(input), Lowercase{}.Normalize(input))
	assert.Equal(t, "show  disk-usage", Lowercase{}.Normalize(input))
}

func TestNew(t *testing.T) {
	assert.Equal(t, NameSnowball, New("snowball", nil).Name())
	assert.Equal(t, NameSnowball, New("", nil).Name())
	assert.Equal(t, NameLowercase, New("LOWERCASE", nil).Name())
	assert.Equal(t, NameLowercase, New("pymorphy", zap.NewNop()).Name())
}
