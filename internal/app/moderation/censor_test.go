package moderation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCensor_StarsOutDictionaryWords(t *testing.T) {
	req := require.New(t)
	censor, err := NewCensor([]string{"damn", "hell"})
	req.NoError(err)

	req.Equal("**** right", censor.Sanitize("damn right"))
	req.Equal("what the ****", censor.Sanitize("what the hell"))
}

func TestCensor_PreservesCleanContent(t *testing.T) {
	req := require.New(t)
	censor, err := NewCensor([]string{"damn"})
	req.NoError(err)

	req.Equal("perfectly fine message", censor.Sanitize("perfectly fine message"))
	req.Equal("", censor.Sanitize(""))
	req.Equal("!!!", censor.Sanitize("!!!"))
}

func TestCensor_CatchesObfuscatedSpellings(t *testing.T) {
	req := require.New(t)
	censor, err := NewCensor([]string{"damn"})
	req.NoError(err)

	// Leet speak substitution
	req.Equal("****", censor.Sanitize("d4mn"))
	// Mixed case is normalized
	req.Equal("****", censor.Sanitize("DaMn"))
}

func TestCensor_EmptyDictionaryPassesThrough(t *testing.T) {
	req := require.New(t)
	censor, err := NewCensor(nil)
	req.NoError(err)

	req.Equal("anything goes here", censor.Sanitize("anything goes here"))
}

func TestCensor_MatchesInsideLongerText(t *testing.T) {
	req := require.New(t)
	censor, err := NewCensor([]string{"crap"})
	req.NoError(err)

	out := censor.Sanitize("this crap again, more crap")
	req.Equal("this **** again, more ****", out)
}
