package dropbox

import (
	"context"
	"log/slog"
)

// accountResponse mirrors the users/get_current_account JSON.
// Unexported — callers use Account via toAccount() normalization.
type accountResponse struct {
	AccountID string `json:"account_id"`
	Name      struct {
		DisplayName string `json:"display_name"`
	} `json:"name"`
	Email    string `json:"email"`
	RootInfo struct {
		Tag             string `json:".tag"` //nolint:tagliatelle // Dropbox discriminator key
		RootNamespaceID string `json:"root_namespace_id"`
		HomeNamespaceID string `json:"home_namespace_id"`
	} `json:"root_info"`
}

func (a *accountResponse) toAccount() Account {
	return Account{
		AccountID:       a.AccountID,
		DisplayName:     a.Name.DisplayName,
		Email:           a.Email,
		RootNamespaceID: a.RootInfo.RootNamespaceID,
	}
}

// CurrentAccount returns the authenticated user's account, including the
// root namespace ID used to scope paths to the team root (WithPathRoot).
// For non-team accounts the root namespace equals the home namespace and
// scoping is a no-op.
func (c *Client) CurrentAccount(ctx context.Context) (*Account, error) {
	c.logger.Debug("fetching current account")

	var ar accountResponse
	if err := c.rpc(ctx, "/2/users/get_current_account", nil, &ar); err != nil {
		return nil, err
	}

	account := ar.toAccount()

	c.logger.Debug("current account",
		slog.String("account_id", account.AccountID),
		slog.String("root_namespace_id", account.RootNamespaceID),
	)

	return &account, nil
}
