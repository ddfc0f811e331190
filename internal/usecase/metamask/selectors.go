package metamask

import "marketplace-e2e/internal/domain/entity"

// Prompt buttons moved between testids across extension releases; every
// candidate list is ordered newest first.
var (
	confirmCandidates = []entity.Selector{
		entity.TestID("confirm-footer-button"),
		entity.TestID("page-container-footer-next"),
		entity.TestID("confirm-btn"),
	}
	cancelCandidates = []entity.Selector{
		entity.TestID("confirm-footer-cancel-button"),
		entity.TestID("page-container-footer-cancel"),
		entity.TestID("cancel-btn"),
	}
	signCandidates = []entity.Selector{
		entity.TestID("confirm-footer-button"),
		entity.TestID("signature-sign-button"),
		entity.TestID("page-container-footer-next"),
	}
	rejectSignatureCandidates = []entity.Selector{
		entity.TestID("confirm-footer-cancel-button"),
		entity.TestID("signature-cancel-button"),
		entity.TestID("page-container-footer-cancel"),
	}

	// a confirmation the account cannot pay for renders with a disabled
	// confirm button and an alert instead of failing on click
	insufficientFundsIndicators = []entity.Selector{
		entity.CSS(`[data-testid="confirm-footer-button"]:disabled`),
		entity.CSS(`[data-testid="page-container-footer-next"]:disabled`),
		entity.TestID("insufficient-funds-alert"),
		entity.Text("Insufficient funds"),
	}

	signatureScrollButton = entity.TestID("signature-request-scroll-button")

	unlockPassword = entity.TestID("unlock-password")
	unlockSubmit   = entity.TestID("unlock-submit")

	networkNameInput     = entity.TestID("network-form-network-name")
	networkRPCInput      = entity.TestID("network-form-rpc-url")
	networkChainIDInput  = entity.TestID("network-form-chain-id")
	networkSymbolInput   = entity.TestID("network-form-ticker-input")
	networkExplorerInput = entity.TestID("network-form-block-explorer-url")

	networkSaveCandidates = []entity.Selector{
		entity.CSS(".networks-tab__add-network-form-footer .btn-primary"),
		entity.ExactRole("button", "Save"),
	}
	networkSwitchCandidates = []entity.Selector{
		entity.TestID("home__new-network-added__switch-to-button"),
		entity.Role("button", "Switch to"),
	}
)

const addNetworkPath = "home.html#settings/networks/add-network"
