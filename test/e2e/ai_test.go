//go:build e2e

package e2e

import (
	"testing"

	"github.com/stretchr/testify/require"

	"marketplace-e2e/internal/adapter/pages"
)

func TestAI_ConnectWalletFlow(t *testing.T) {
	if container.LLM == nil {
		t.Skip("OPENROUTER_API_KEY not set")
	}
	ctx := testContext(t)
	page := newPage(t)
	require.NoError(t, pages.NewHomePage(page, container.Config.Suite.BaseURL).Navigate(ctx))

	runner, err := container.StepRunner(page)
	require.NoError(t, err)

	for _, step := range []string{
		"Click Connect Wallet",
		"Click Get a Wallet",
		"Select one of the wallet options",
	} {
		answer, err := runner.Step(ctx, step)
		require.NoError(t, err, step)
		t.Logf("%s: %s", step, answer)
	}
}
