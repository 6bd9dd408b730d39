package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/bizkeeper/internal/client/repositories/state"
)

// Login authenticates against the server and persists the session so the
// next launch can restore it without the server being reachable.
func (a *App) Login(ctx context.Context) {
	username, err := GetSimpleText(a.reader, "Enter username", os.Stdout)
	if err != nil {
		fmt.Println("input error:", err)
		return
	}
	password, err := GetPassword(os.Stdout)
	if err != nil {
		fmt.Println("input error:", err)
		return
	}

	userID, err := a.api.Login(ctx, username, string(password))
	if err != nil {
		fmt.Println("login failed:", err)
		return
	}

	if err := a.adoptMigratedRecords(ctx, userID); err != nil {
		fmt.Println("warning: failed to adopt migrated records:", err)
	}

	a.ownerID = userID
	a.userName = username
	a.controller.SetIdentity(userID)

	if err := a.saveSession(ctx, username, userID); err != nil {
		fmt.Println("warning: failed to persist session:", err)
	}
	fmt.Println("Logged in.")
}

// adoptMigratedRecords folds the legacy-import baseline into the
// authenticated identity. The legacy migration runs before any login exists,
// so it scopes records by the snapshot's own user id; the first login takes
// them over here so they land in this session's upload queue. One-shot: the
// marker is cleared once the records are rebound.
func (a *App) adoptMigratedRecords(ctx context.Context, userID string) error {
	migrated, err := a.state.Get(ctx, state.KeyMigratedOwnerID)
	if err != nil {
		return err
	}
	if len(migrated) == 0 {
		return nil
	}
	if string(migrated) != userID {
		if err := a.records.ReassignOwner(ctx, string(migrated), userID); err != nil {
			return err
		}
	}
	return a.state.Delete(ctx, state.KeyMigratedOwnerID)
}

func (a *App) saveSession(ctx context.Context, username, userID string) error {
	access, refresh := a.api.Tokens()

	if err := a.state.Set(ctx, state.KeyUsername, []byte(username)); err != nil {
		return err
	}
	if err := a.state.Set(ctx, state.KeyLocalUserID, []byte(userID)); err != nil {
		return err
	}
	if err := a.state.Set(ctx, state.KeyRemotePrincipalID, []byte(userID)); err != nil {
		return err
	}
	if err := a.state.Set(ctx, state.KeyAccessToken, []byte(access)); err != nil {
		return err
	}
	return a.state.Set(ctx, state.KeyRefreshToken, []byte(refresh))
}

// Register creates a new account on the server.
func (a *App) Register(ctx context.Context) {
	username, err := GetSimpleText(a.reader, "Enter username", os.Stdout)
	if err != nil {
		fmt.Println("input error:", err)
		return
	}
	password, err := GetPassword(os.Stdout)
	if err != nil {
		fmt.Println("input error:", err)
		return
	}

	if err := a.api.Register(ctx, username, string(password)); err != nil {
		fmt.Println("registration failed:", err)
		return
	}
	fmt.Println("Registered. You can now log in.")
}

// Logout unbinds the identity and wipes session keys; local records stay.
func (a *App) Logout(ctx context.Context) {
	a.ownerID = ""
	a.userName = ""
	a.controller.SetIdentity("")
	a.api.SetTokens("", "")

	for _, key := range []string{
		state.KeyUsername, state.KeyLocalUserID, state.KeyRemotePrincipalID,
		state.KeyAccessToken, state.KeyRefreshToken,
	} {
		if err := a.state.Delete(ctx, key); err != nil {
			fmt.Println("warning: failed to clear session key:", err)
		}
	}
	fmt.Println("Logged out.")
}
