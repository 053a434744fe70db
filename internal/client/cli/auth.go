package cli

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/skydexapp/skydex/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts the user for an email and password and creates a new
// account on the server. A fresh account is then synced like a login so
// any pre-login local discoveries get migrated.
func (a *App) Register(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	resp, err := a.api.Register(ctx, email, string(password))
	if err != nil {
		log.Printf("Registration unsuccessful: %s", err.Error())
		return err
	}

	printlnFn("Account created!")
	return a.afterLogin(ctx, resp.Token, resp.Email)
}

// Login prompts for credentials, authenticates and reconciles the local
// collection with the server ledger.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	resp, err := a.api.Login(ctx, email, string(password))
	if err != nil {
		log.Printf("Login unsuccessful: %s", err.Error())
		return err
	}

	printlnFn("Login successful")
	return a.afterLogin(ctx, resp.Token, resp.Email)
}

// afterLogin installs the session, uploads pre-login history if the
// server account is still untouched, then merges the server snapshot
// into the local store. Migration runs first so reconciliation cannot
// overwrite history the server has never seen.
func (a *App) afterLogin(ctx context.Context, token, email string) error {
	if err := a.setSession(ctx, token, email); err != nil {
		log.Printf("error saving session: %v", err)
		return err
	}

	migrated, err := a.sync.MigrateIfNeeded(ctx)
	if err != nil {
		log.Printf("migration failed: %v", err)
	} else if migrated {
		printlnFn("Local collection uploaded to the server")
	}

	merged, err := a.sync.ReconcileOnLogin(ctx)
	if err != nil {
		log.Printf("sync failed: %v", err)
		return err
	}
	printlnFn(fmt.Sprintf("Collection synced: %d points, %d discoveries", merged.Points, merged.TotalLitCount))
	return nil
}

// Logout clears the saved session. The local collection stays on disk.
func (a *App) Logout(ctx context.Context) error {
	if err := a.store.ClearSession(ctx); err != nil {
		return err
	}
	a.api.SetToken("")
	a.email = ""
	printlnFn("Logged out")
	return nil
}
