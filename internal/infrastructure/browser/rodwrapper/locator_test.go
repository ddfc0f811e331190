package rodwrapper

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"marketplace-e2e/internal/domain/entity"
)

func TestXPathLiteral(t *testing.T) {
	assert.Equal(t, `'Connect'`, xpathLiteral("Connect"))
	assert.Equal(t, `"It's live"`, xpathLiteral("It's live"))
	assert.Equal(t, `concat('a"b', "'", 'c')`, xpathLiteral(`a"b'c`))
}

func TestCSSFor(t *testing.T) {
	tests := []struct {
		sel  entity.Selector
		want string
	}{
		{entity.CSS("#app-content .app"), "#app-content .app"},
		{entity.TestID("page-container-footer-next"), `[data-testid="page-container-footer-next"]`},
		{entity.Placeholder("Search"), `[placeholder*="Search" i]`},
		{entity.Role("dialog", ""), roleCSS["dialog"]},
		{entity.Role("tab", "Items"), `[role="tab"]`},
	}
	for _, tt := range tests {
		got, ok := cssFor(tt.sel)
		assert.True(t, ok, tt.sel.String())
		assert.Equal(t, tt.want, got)
	}

	_, ok := cssFor(entity.Text("x"))
	assert.False(t, ok)
}

func TestTextXPath(t *testing.T) {
	xp := textXPath("//", "  Connect   Wallet ", false)
	assert.Contains(t, xp, "'connect wallet'")
	assert.Contains(t, xp, "translate(")

	exact := textXPath(".//", "Rewards", true)
	assert.Contains(t, exact, "normalize-space(.)='Rewards'")
	assert.True(t, len(exact) > 3 && exact[:3] == ".//")
}

func TestNameMatches(t *testing.T) {
	assert.True(t, nameMatches("Agree  and proceed", "agree and", false))
	assert.False(t, nameMatches("Agree and proceed", "Agree", true))
	assert.True(t, nameMatches(" Rewards ", "Rewards", true))
}

func TestPick(t *testing.T) {
	assert.Nil(t, pick(nil, 0))
}
