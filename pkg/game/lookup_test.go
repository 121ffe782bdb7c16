package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hazyhaar/energle/pkg/energy"
)

func lookupDataset() *energy.Dataset {
	return &energy.Dataset{Profiles: []energy.Profile{
		{Economy: "01_AUS", Name: "Australia"},
		{Economy: "20_USA", Name: "USA"},
		{Economy: "21_VN", Name: "Viet Nam"},
		{Economy: "CIV", Name: "Côte d'Ivoire"},
		{Economy: "HKC", Name: "Hong Kong, China"},
		{Economy: "HKC2", Name: "Hong Kong, China"},
	}}
}

func TestLookup_Find(t *testing.T) {
	l := NewLookup(lookupDataset(), DefaultAliases())

	tests := []struct {
		input string
		want  string
	}{
		{"Australia", "01_AUS"},
		{"  AUSTRALIA ", "01_AUS"},
		{"01_AUS", "01_AUS"},
		{"aus", "01_AUS"},
		{"cote divoire", "CIV"},
		{"Côte-d’Ivoire", "CIV"},
		{"usa", "20_USA"},
		{"United States", "20_USA"},
		{"US", "20_USA"},
		{"Vietnam", "21_VN"},
		{"vn", "21_VN"},
		{"hong kong, china", "HKC"},
	}
	for _, tt := range tests {
		p, ok := l.Find(tt.input)
		if assert.True(t, ok, "Find(%q)", tt.input) {
			assert.Equal(t, tt.want, p.Economy, "Find(%q)", tt.input)
		}
	}

	_, ok := l.Find("Atlantis")
	assert.False(t, ok)
	_, ok = l.Find("   ")
	assert.False(t, ok)
}

func TestLookup_Suggestions(t *testing.T) {
	l := NewLookup(lookupDataset(), nil)

	all := l.Suggestions("", 0)
	require.Len(t, all, 5, "duplicate names are listed once")
	assert.Equal(t, "Australia", all[0].Name)

	hk := l.Suggestions("hong", 0)
	require.Len(t, hk, 1)
	assert.Equal(t, "HKC", hk[0].Economy)

	assert.Len(t, l.Suggestions("", 2), 2)
	assert.Empty(t, l.Suggestions("zz", 0))
	assert.NotNil(t, l.Suggestions("zz", 0))
}

func TestBareCode(t *testing.T) {
	assert.Equal(t, "AUS", bareCode("01_AUS"))
	assert.Equal(t, "AUS", bareCode("AUS"))
	assert.Equal(t, "X_AUS", bareCode("X_AUS"))
	assert.Equal(t, "_AUS", bareCode("_AUS"))
}
