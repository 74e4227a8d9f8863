package inbound

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/shandysiswandi/credvault/internal/credential/entity"
	"github.com/shandysiswandi/credvault/internal/credential/usecase"
	"github.com/shandysiswandi/credvault/internal/pkg/goerror"
	"github.com/shandysiswandi/credvault/internal/pkg/validator"
)

// provisionListLimit is the most generated credentials printed in full.
const provisionListLimit = 20

func (c *Console) createUser(ctx context.Context) (State, error) {
	username, err := c.prompt.ReadLine("Username: ")
	if err != nil {
		return StateExit, err
	}
	password, err := c.prompt.ReadPassword("Password: ")
	if err != nil {
		return StateExit, err
	}
	confirm, err := c.prompt.ReadPassword("Confirm password: ")
	if err != nil {
		return StateExit, err
	}

	if password != confirm {
		c.println("Passwords do not match, try again.")
		return StateCreateUser, nil
	}

	cred, err := c.uc.UserCreate(ctx, usecase.UserCreateInput{Username: username, Password: password})
	if goerror.IsValidation(err) {
		c.printError(err)
		return StateCreateUser, nil
	}
	if err != nil {
		c.printError(err)
		return StateMainMenu, nil
	}

	c.printf("User %q created.\n", cred.Username)
	return StateMainMenu, nil
}

func (c *Console) login(ctx context.Context) (State, error) {
	username, err := c.prompt.ReadLine("Username: ")
	if err != nil {
		return StateExit, err
	}
	password, err := c.prompt.ReadPassword("Password: ")
	if err != nil {
		return StateExit, err
	}

	ok, err := c.uc.Authenticate(ctx, usecase.LoginInput{Username: username, Password: password})
	if err != nil {
		c.printError(err)
		return StateMainMenu, nil
	}

	if ok {
		c.println("Login successful.")
	} else {
		c.println("Invalid username or password.")
	}
	return StateMainMenu, nil
}

func (c *Console) deleteUser(ctx context.Context) (State, error) {
	username, err := c.prompt.ReadLine("Username to delete: ")
	if err != nil {
		return StateExit, err
	}
	if trim(username) == "" {
		c.println("Username must not be blank.")
		return StateDeleteUser, nil
	}

	answer, err := c.prompt.ReadLine(fmt.Sprintf("Delete %q? [y/N]: ", trim(username)))
	if err != nil {
		return StateExit, err
	}
	if !isYes(answer) {
		c.println("Cancelled.")
		return StateMainMenu, nil
	}

	outcome, err := c.uc.UserDelete(ctx, usecase.UserDeleteInput{Username: username})
	if err != nil {
		c.printError(err)
		return StateMainMenu, nil
	}

	switch outcome {
	case entity.DeleteOutcomeDeleted:
		c.printf("User %q deleted.\n", trim(username))
	default:
		c.printf("User %q not found.\n", trim(username))
	}
	return StateMainMenu, nil
}

func (c *Console) bulkProvision(ctx context.Context) (State, error) {
	raw, err := c.prompt.ReadLine("How many test users? ")
	if err != nil {
		return StateExit, err
	}

	count, err := strconv.Atoi(trim(raw))
	if err != nil {
		c.println("Enter a whole number.")
		return StateBulkProvision, nil
	}

	out, err := c.uc.UserProvision(ctx, usecase.UserProvisionInput{Count: count})
	if goerror.IsValidation(err) {
		c.printError(err)
		return StateBulkProvision, nil
	}
	if err != nil {
		c.printError(err)
		return StateMainMenu, nil
	}

	c.printf("Provisioned %d users (%s .. %s).\n", len(out), out[0].Username, out[len(out)-1].Username)
	if len(out) <= provisionListLimit {
		for _, p := range out {
			c.printf("  %s  %s\n", p.Username, p.Password)
		}
	}
	return StateMainMenu, nil
}

func (c *Console) listUsers(ctx context.Context) (State, error) {
	users, err := c.uc.UserList(ctx)
	if err != nil {
		c.printError(err)
		return StateMainMenu, nil
	}

	if len(users) == 0 {
		c.println("No users.")
		return StateMainMenu, nil
	}

	for i, u := range users {
		c.printf("%4d. %s\n", i+1, u)
	}
	return StateMainMenu, nil
}

func (c *Console) backup(ctx context.Context) (State, error) {
	out, err := c.uc.StoreBackup(ctx)
	if err != nil {
		c.printError(err)
		return StateMainMenu, nil
	}

	c.printf("Backup %s saved (%d records).\n", out.Key, out.Records)
	return StateMainMenu, nil
}

func (c *Console) restore(ctx context.Context) (State, error) {
	backups, err := c.uc.StoreBackupList(ctx)
	if err != nil {
		c.printError(err)
		return StateMainMenu, nil
	}
	if len(backups) == 0 {
		c.println("No backups found.")
		return StateMainMenu, nil
	}

	for i, b := range backups {
		c.printf("%d) %s  %d bytes\n", i+1, b.Key, b.Size)
	}

	raw, err := c.prompt.ReadLine("Restore which backup? (blank to cancel) ")
	if err != nil {
		return StateExit, err
	}
	if trim(raw) == "" {
		c.println("Cancelled.")
		return StateMainMenu, nil
	}

	n, err := strconv.Atoi(trim(raw))
	if err != nil || n < 1 || n > len(backups) {
		c.println("Invalid choice.")
		return StateRestore, nil
	}
	key := backups[n-1].Key

	answer, err := c.prompt.ReadLine(fmt.Sprintf("Replace the store with %s? [y/N]: ", key))
	if err != nil {
		return StateExit, err
	}
	if !isYes(answer) {
		c.println("Cancelled.")
		return StateMainMenu, nil
	}

	out, err := c.uc.StoreRestore(ctx, usecase.StoreRestoreInput{Key: key})
	if err != nil {
		c.printError(err)
		return StateMainMenu, nil
	}

	c.printf("Store restored: %d records, %d corrupt lines dropped.\n", out.Records, out.Dropped)
	return StateMainMenu, nil
}

func (c *Console) printError(err error) {
	gerr, ok := goerror.As(err)
	if !ok {
		c.println("Error: internal error")
		return
	}

	fields := gerr.Fields()
	var errValidate validator.V10ValidationError
	if errors.As(err, &errValidate) {
		fields = errValidate.Values()
	}

	if len(fields) == 0 {
		c.printf("Error: %s\n", gerr.Msg())
		return
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	c.printf("Error: %s\n", gerr.Msg())
	for _, k := range keys {
		c.printf("  - %s\n", fields[k])
	}
}

func trim(s string) string {
	return strings.TrimSpace(s)
}

func isYes(s string) bool {
	switch strings.ToLower(trim(s)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
